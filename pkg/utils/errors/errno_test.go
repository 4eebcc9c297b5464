package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestMakeCode(t *testing.T) {
	code := MakeCode(ServiceMedExtract, CategoryRateLimit, 1)
	assert.Equal(t, 3006001, code)

	service, category, seq := ParseCode(code)
	assert.Equal(t, ServiceMedExtract, service)
	assert.Equal(t, CategoryRateLimit, category)
	assert.Equal(t, 1, seq)
	assert.True(t, IsClientError(code))
	assert.False(t, IsServerError(code))
}

func TestErrnoWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ErrDatabase.WithCause(cause)

	assert.True(t, stderrors.Is(err, ErrDatabase))
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, ErrDatabase.Unwrap(), "original errno must not be mutated")
}

func TestErrnoWithMessage(t *testing.T) {
	err := ErrQueueLimitReached.WithMessagef("Your %s tier allows %d concurrent jobs", "free", 2)

	assert.Equal(t, "Your free tier allows 2 concurrent jobs", err.MessageEN)
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus())
	assert.Equal(t, codes.ResourceExhausted, err.GRPCStatus())
	assert.Equal(t, "Queue limit reached", ErrQueueLimitReached.MessageEN)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("store: %w", ErrJobNotFound)
	assert.Equal(t, ErrJobNotFound.Code, FromError(wrapped).Code)
	assert.True(t, IsCode(wrapped, ErrJobNotFound.Code))

	plain := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, -1, GetCode(fmt.Errorf("boom")))
}

func TestMessageLanguage(t *testing.T) {
	assert.Equal(t, "任务不存在", ErrJobNotFound.Message("zh-CN"))
	assert.Equal(t, "Job not found", ErrJobNotFound.Message("en"))
}

func TestRegisterDuplicatePanics(t *testing.T) {
	_, ok := Lookup(ErrInvalidAPIKey.Code)
	assert.True(t, ok)
	assert.Panics(t, func() {
		Register(New(ErrInvalidAPIKey.Code, http.StatusBadRequest, codes.InvalidArgument, "dup", "重复"))
	})
}
