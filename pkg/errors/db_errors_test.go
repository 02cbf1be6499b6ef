package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyDBError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyDBError(nil))
}

func TestClassifyDBError_RecordNotFound(t *testing.T) {
	dbErr := ClassifyDBError(gorm.ErrRecordNotFound)
	assert.Equal(t, ErrorTypeNotFound, dbErr.Type)
	assert.True(t, IsNotFound(gorm.ErrRecordNotFound))
}

func TestClassifyDBError_WrappedRecordNotFound(t *testing.T) {
	wrapped := fmt.Errorf("find change request: %w", gorm.ErrRecordNotFound)
	assert.True(t, IsNotFound(wrapped))
}

func TestClassifyDBError_MySQLErrors(t *testing.T) {
	tests := []struct {
		name     string
		number   uint16
		wantType DatabaseErrorType
	}{
		{"duplicate key", 1062, ErrorTypeDuplicateKey},
		{"deadlock", 1213, ErrorTypeDeadlock},
		{"data too long", 1406, ErrorTypeDataTooLong},
		{"unknown code", 1205, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &mysql.MySQLError{Number: tt.number, Message: tt.name}
			dbErr := ClassifyDBError(err)
			assert.Equal(t, tt.wantType, dbErr.Type)
			assert.Equal(t, tt.number, dbErr.MySQLErrCode)
		})
	}
}

func TestClassifyDBError_ConnectionPatterns(t *testing.T) {
	err := stderrors.New("dial tcp 127.0.0.1:3306: connection refused")
	dbErr := ClassifyDBError(err)
	assert.Equal(t, ErrorTypeConnectionError, dbErr.Type)
}

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'req-1' for key 'request_id'"}
	assert.True(t, IsDuplicateKey(dup))
	assert.False(t, IsDuplicateKey(stderrors.New("other")))
}

func TestDatabaseError_Unwrap(t *testing.T) {
	orig := &mysql.MySQLError{Number: 1062}
	dbErr := ClassifyDBError(orig)

	var target *mysql.MySQLError
	assert.True(t, stderrors.As(dbErr, &target))
	assert.Equal(t, uint16(1062), target.Number)
}
