package domain

import (
	"path/filepath"
	"strings"
)

// ConversionKind is the conversion family of a request
type ConversionKind string

const (
	ConvertAudio    ConversionKind = "audio"
	ConvertVideo    ConversionKind = "video"
	ConvertDocument ConversionKind = "document"
)

const megabyte = 1024 * 1024

var supportedFormats = map[ConversionKind][]string{
	ConvertAudio:    {"mp3", "wav", "aac", "flac", "ogg"},
	ConvertVideo:    {"mp4", "mkv", "mov", "webm"},
	ConvertDocument: {"pdf", "docx", "odt", "txt"},
}

var sizeLimits = map[ConversionKind]int64{
	ConvertAudio:    50 * megabyte,
	ConvertVideo:    75 * megabyte,
	ConvertDocument: 50 * megabyte,
}

// soffice export filters per target format
var documentFilters = map[string]string{
	"pdf":  "writer_pdf_Export",
	"docx": "MS Word 2007 XML",
	"odt":  "writer8",
	"txt":  "Text (encoded):UTF8",
}

var mimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"mp4":  "video/mp4",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"odt":  "application/vnd.oasis.opendocument.text",
	"txt":  "text/plain",
}

// ParseConversionKind parses a conversion family name
func ParseConversionKind(s string) (ConversionKind, bool) {
	k := ConversionKind(strings.ToLower(s))
	_, ok := supportedFormats[k]
	return k, ok
}

// SupportedFormats returns the target formats of a conversion family
func (k ConversionKind) SupportedFormats() []string {
	return append([]string(nil), supportedFormats[k]...)
}

// Supports reports whether format is a valid target for k
func (k ConversionKind) Supports(format string) bool {
	for _, f := range supportedFormats[k] {
		if f == format {
			return true
		}
	}
	return false
}

// SizeLimit returns the maximum accepted input size in bytes
func (k ConversionKind) SizeLimit() int64 {
	return sizeLimits[k]
}

// DocumentFilter returns the soffice export filter token of a document format
func DocumentFilter(format string) string {
	return documentFilters[format]
}

// NormalizeFormat lower-cases a format and strips a leading dot
func NormalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
}

// ValidateConversion checks format then size. It never performs I/O.
func ValidateConversion(k ConversionKind, format string, size int64) error {
	if !k.Supports(format) {
		return ErrUnsupportedFormat
	}
	if size > k.SizeLimit() {
		return ErrFileTooLarge
	}
	return nil
}

// MimeTypeFor returns the mime type of a target format
func MimeTypeFor(format string) string {
	if m, ok := mimeTypes[format]; ok {
		return m
	}
	return "application/octet-stream"
}

// BaseName strips directory and extension from a file name
func BaseName(fileName string) string {
	base := filepath.Base(fileName)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return "file"
	}
	return base
}

// ConvertedFileName derives the output name of a conversion
func ConvertedFileName(k ConversionKind, inputName, format string) string {
	base := BaseName(inputName)
	if k == ConvertDocument {
		return base + "." + format
	}
	return base + "_converted." + format
}

// ConversionResult is the output of a successful conversion
type ConversionResult struct {
	FileName string
	MimeType string
	Data     []byte
}
