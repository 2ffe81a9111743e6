package zfm

import (
	"errors"
	"fmt"
)

// StatusCode is the first byte of an ACK payload: the sensor's verdict on
// the command it acknowledges.
type StatusCode byte

const (
	StatusOK                      StatusCode = 0x00
	StatusCommunicationError      StatusCode = 0x01
	StatusNoFinger                StatusCode = 0x02
	StatusReadImageFailed         StatusCode = 0x03
	StatusMessyImage              StatusCode = 0x06
	StatusFewFeaturePoints        StatusCode = 0x07
	StatusNoMatch                 StatusCode = 0x08
	StatusNoTemplateFound         StatusCode = 0x09
	StatusCharacteristicsMismatch StatusCode = 0x0A
	StatusInvalidPosition         StatusCode = 0x0B
	StatusLoadTemplateFailed      StatusCode = 0x0C
	StatusDownloadCharsFailed     StatusCode = 0x0D
	StatusPacketResponseFail      StatusCode = 0x0E
	StatusDownloadImageFailed     StatusCode = 0x0F
	StatusDeleteTemplateFailed    StatusCode = 0x10
	StatusClearDatabaseFailed     StatusCode = 0x11
	StatusWrongPassword           StatusCode = 0x13
	StatusInvalidImage            StatusCode = 0x15
	StatusFlashWriteFailed        StatusCode = 0x18
	StatusInvalidRegister         StatusCode = 0x1A
	StatusAddressCode             StatusCode = 0x20
)

var statusText = map[StatusCode]string{
	StatusCommunicationError:      "communication error",
	StatusNoFinger:                "no finger on the sensor",
	StatusReadImageFailed:         "failed to read image",
	StatusMessyImage:              "image too messy",
	StatusFewFeaturePoints:        "too few feature points",
	StatusNoMatch:                 "characteristics do not match",
	StatusNoTemplateFound:         "no matching template found",
	StatusCharacteristicsMismatch: "characteristics mismatch",
	StatusInvalidPosition:         "invalid template position",
	StatusLoadTemplateFailed:      "failed to load template",
	StatusDownloadCharsFailed:     "failed to download characteristics",
	StatusPacketResponseFail:      "packet response failure",
	StatusDownloadImageFailed:     "failed to download image",
	StatusDeleteTemplateFailed:    "failed to delete template",
	StatusClearDatabaseFailed:     "failed to clear database",
	StatusWrongPassword:           "wrong password",
	StatusInvalidImage:            "invalid image",
	StatusFlashWriteFailed:        "flash write failed",
	StatusInvalidRegister:         "invalid register number",
	StatusAddressCode:             "address code mismatch",
}

func (c StatusCode) String() string {
	if s, ok := statusText[c]; ok {
		return s
	}
	if c == StatusOK {
		return "ok"
	}
	return fmt.Sprintf("status 0x%02X", byte(c))
}

// StatusError reports a sensor status the issuing operation does not treat
// as an expected negative outcome.
type StatusError struct {
	Op   string
	Code StatusCode
}

func (e *StatusError) Error() string {
	if _, known := statusText[e.Code]; !known && e.Code != StatusOK {
		return fmt.Sprintf("zfm: %s: unknown status 0x%02X", e.Op, byte(e.Code))
	}
	return fmt.Sprintf("zfm: %s: %s", e.Op, e.Code)
}

// IsStatus reports whether err is a StatusError carrying code.
func IsStatus(err error, code StatusCode) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func statusErr(op string, code StatusCode) error {
	return &StatusError{Op: op, Code: code}
}
