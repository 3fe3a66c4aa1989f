package ec2

import (
	"errors"

	"github.com/aws/smithy-go"
)

// API error codes returned by EC2.
const (
	codeInstanceNotFound    = "InvalidInstanceID.NotFound"
	codeSpotRequestNotFound = "InvalidSpotInstanceRequestID.NotFound"
)

// IsNotFound reports whether err says the instance or spot request does not exist.
func IsNotFound(err error) bool {
	return hasErrorCode(err, codeInstanceNotFound, codeSpotRequestNotFound)
}

func hasErrorCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}
