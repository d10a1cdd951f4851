package myhdfs

import "errors"

type ErrorCode int

const (
	Success = iota
	UnknownError
	Timeout
	NotFound
	ExhaustedResource
	OversizeRequest
	InvalidArgument
	RemoteUnavailable
)

// Error extended error type with error code
type Error struct {
	Code ErrorCode
	Err  string
}

func (e Error) Error() string {
	return e.Err
}

var (
	ErrNotFound     = Error{NotFound, "inode not found"}
	ErrInvalidBlock = Error{InvalidArgument, "invalid block id"}
	ErrInvalidInum  = Error{InvalidArgument, "invalid inode number"}
	ErrNilBuffer    = Error{InvalidArgument, "nil buffer"}
	ErrNameTooLong  = Error{InvalidArgument, "file name too long"}
	ErrBadName      = Error{InvalidArgument, "invalid file name"}
	ErrBadType      = Error{InvalidArgument, "invalid inode type"}
	ErrNotDir       = Error{InvalidArgument, "not a directory"}
	ErrExist        = Error{InvalidArgument, "entry already exists"}
	ErrCycle        = Error{InvalidArgument, "directory cycle detected"}
	ErrNoFreeBlock  = Error{ExhaustedResource, "no free block"}
	ErrNoFreeInode  = Error{ExhaustedResource, "no free inode"}
	ErrFileTooLarge = Error{OversizeRequest, "file exceeds max file size"}
	ErrNoDatanode   = Error{RemoteUnavailable, "no alive datanode"}
)

// CodeOf returns the error code carried by err.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}
	return UnknownError
}

// NewError rebuilds an error received from a remote reply.
func NewError(code ErrorCode, msg string) error {
	if code == Success {
		return nil
	}
	return Error{Code: code, Err: msg}
}

// Describe splits err into the code and message carried by a reply.
func Describe(err error) (ErrorCode, string) {
	if err == nil {
		return Success, ""
	}
	return CodeOf(err), err.Error()
}
