package pom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DefaultFileNameConstant is the descriptor file name inside each checkout.
	DefaultFileNameConstant = "pom.xml"
	// DefaultVersionFieldConstant is the element carrying the platform version dependency.
	DefaultVersionFieldConstant = "motech.version"

	closingTagPrefixConstant          = "</"
	fieldNameRequiredMessageConstant  = "descriptor field name must be provided"
	fieldNotFoundMessageConstant      = "descriptor field not found"
	fieldEmptyMessageConstant         = "descriptor field is an empty element"
	fieldNestedMessageConstant        = "descriptor field contains child elements"
	fieldErrorTemplateConstant        = "%w: %s"
	parseErrorTemplateConstant        = "failed to parse descriptor: %w"
	closingTagMissingTemplateConstant = "closing tag of %s not found"
)

var (
	// ErrFieldNotFound indicates the descriptor has no element with the requested tag.
	ErrFieldNotFound = errors.New(fieldNotFoundMessageConstant)
	// ErrFieldEmpty indicates the element is self-closing and has no text to rewrite.
	ErrFieldEmpty = errors.New(fieldEmptyMessageConstant)
	// ErrFieldNested indicates the element holds markup rather than plain text.
	ErrFieldNested = errors.New(fieldNestedMessageConstant)
)

type fieldLocation struct {
	textStart int64
	textEnd   int64
	text      string
}

// ReadField returns the trimmed text of the first element named tag.
func ReadField(content []byte, tag string) (string, error) {
	location, locateError := locateField(content, tag)
	if locateError != nil {
		return "", locateError
	}
	return strings.TrimSpace(location.text), nil
}

// ReplaceField returns a copy of content with the text of the first element named tag set to value.
// Every byte outside that element's text is preserved.
func ReplaceField(content []byte, tag string, value string) ([]byte, error) {
	location, locateError := locateField(content, tag)
	if locateError != nil {
		return nil, locateError
	}

	var escapedValue bytes.Buffer
	if escapeError := xml.EscapeText(&escapedValue, []byte(value)); escapeError != nil {
		return nil, escapeError
	}

	rewritten := make([]byte, 0, len(content)-int(location.textEnd-location.textStart)+escapedValue.Len())
	rewritten = append(rewritten, content[:location.textStart]...)
	rewritten = append(rewritten, escapedValue.Bytes()...)
	rewritten = append(rewritten, content[location.textEnd:]...)
	return rewritten, nil
}

func locateField(content []byte, tag string) (fieldLocation, error) {
	trimmedTag := strings.TrimSpace(tag)
	if len(trimmedTag) == 0 {
		return fieldLocation{}, errors.New(fieldNameRequiredMessageConstant)
	}

	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		token, tokenError := decoder.Token()
		if errors.Is(tokenError, io.EOF) {
			return fieldLocation{}, fmt.Errorf(fieldErrorTemplateConstant, ErrFieldNotFound, trimmedTag)
		}
		if tokenError != nil {
			return fieldLocation{}, fmt.Errorf(parseErrorTemplateConstant, tokenError)
		}

		startElement, isStart := token.(xml.StartElement)
		if !isStart || startElement.Name.Local != trimmedTag {
			continue
		}
		return readFieldText(content, decoder, trimmedTag)
	}
}

func readFieldText(content []byte, decoder *xml.Decoder, tag string) (fieldLocation, error) {
	textStart := decoder.InputOffset()
	var text strings.Builder

	for {
		token, tokenError := decoder.Token()
		if tokenError != nil {
			return fieldLocation{}, fmt.Errorf(parseErrorTemplateConstant, tokenError)
		}

		switch typedToken := token.(type) {
		case xml.CharData:
			text.Write(typedToken)
		case xml.EndElement:
			endOffset := decoder.InputOffset()
			if endOffset == textStart {
				return fieldLocation{}, fmt.Errorf(fieldErrorTemplateConstant, ErrFieldEmpty, tag)
			}
			closingIndex := bytes.LastIndex(content[textStart:endOffset], []byte(closingTagPrefixConstant))
			if closingIndex < 0 {
				return fieldLocation{}, fmt.Errorf(closingTagMissingTemplateConstant, tag)
			}
			return fieldLocation{textStart: textStart, textEnd: textStart + int64(closingIndex), text: text.String()}, nil
		case xml.StartElement:
			return fieldLocation{}, fmt.Errorf(fieldErrorTemplateConstant, ErrFieldNested, tag)
		}
	}
}
