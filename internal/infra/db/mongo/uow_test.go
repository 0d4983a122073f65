package mongo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestWriteConflictDetection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "WriteConflictCode",
			err:  mongo.CommandError{Code: 112, Message: "WriteConflict"},
			want: true,
		},
		{
			name: "TransientTransactionLabel",
			err:  mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}},
			want: true,
		},
		{
			name: "WrappedConflict",
			err:  fmt.Errorf("commit: %w", mongo.CommandError{Code: 112}),
			want: true,
		},
		{
			name: "DuplicateKeyIsNotAConflict",
			err: mongo.WriteException{WriteErrors: mongo.WriteErrors{
				{Code: 11000, Message: "E11000 duplicate key"},
			}},
			want: false,
		},
		{
			name: "PlainError",
			err:  errors.New("connection reset"),
			want: false,
		},
		{
			name: "Nil",
			err:  nil,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isWriteConflict(tt.err))
		})
	}
}
