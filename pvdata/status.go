package pvdata

import (
	"fmt"
)

type StatusType int

const (
	StatusTypeOK StatusType = iota
	StatusTypeWarning
	StatusTypeError
	StatusTypeFatal
)

func (self StatusType) String() string {
	switch self {
	case StatusTypeOK:
		return "OK"
	case StatusTypeWarning:
		return "WARNING"
	case StatusTypeError:
		return "ERROR"
	case StatusTypeFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("StatusType(%d)", int(self))
	}
}

// outcome delivered to requester capabilities
// invariant failures inside the core become a `Status`, never a panic
type Status struct {
	Type    StatusType
	Message string
}

var StatusOK = Status{}

func WarningStatus(message string) Status {
	return Status{
		Type:    StatusTypeWarning,
		Message: message,
	}
}

func ErrorStatus(message string) Status {
	return Status{
		Type:    StatusTypeError,
		Message: message,
	}
}

func (self Status) IsOK() bool {
	return self.Type == StatusTypeOK
}

// warnings still count as success
func (self Status) IsSuccess() bool {
	return self.Type == StatusTypeOK || self.Type == StatusTypeWarning
}

func (self Status) String() string {
	if self.Message == "" {
		return self.Type.String()
	}
	return fmt.Sprintf("%s: %s", self.Type, self.Message)
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (self Severity) String() string {
	switch self {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("Severity(%d)", int(self))
	}
}
