package testsCommon

import "github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"

// WriterStub -
type WriterStub struct {
	WriteHandler func(table common.Table) error
}

// Write -
func (stub *WriterStub) Write(table common.Table) error {
	if stub.WriteHandler != nil {
		return stub.WriteHandler(table)
	}

	return nil
}

// IsInterfaceNil -
func (stub *WriterStub) IsInterfaceNil() bool {
	return stub == nil
}
