package errors

import "fmt"

var (
	ErrNotConnected     = fmt.Errorf("not connected to the chat service")
	ErrUnknownEnvelope  = fmt.Errorf("unknown envelope type")
	ErrInvalidEnvelope  = fmt.Errorf("invalid envelope payload")
	ErrDirectoryFetch   = fmt.Errorf("conversation directory fetch failed")
	ErrHistoryFetch     = fmt.Errorf("history fetch failed")
	ErrUploadTooLarge   = fmt.Errorf("upload exceeds the size ceiling")
	ErrUploadFailed     = fmt.Errorf("upload transport failed")
	ErrSettingsNotFound = fmt.Errorf("no settings record stored")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
)
