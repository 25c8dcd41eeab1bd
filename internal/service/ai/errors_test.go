package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
)

func TestClassifyErrorPassesFaultsThrough(t *testing.T) {
	cfgErr := fault.New(fault.Configuration, "not configured")
	assert.Same(t, cfgErr, ClassifyError(fmt.Errorf("wrap: %w", cfgErr), "x"))
	assert.Nil(t, ClassifyError(nil, "x"))
}

func TestClassifyErrorDeadline(t *testing.T) {
	err := ClassifyError(fmt.Errorf("invoke: %w", context.DeadlineExceeded), "x")
	assert.Equal(t, fault.Network, err.Kind)
}

func TestClassifyErrorUsesRootCause(t *testing.T) {
	err := ClassifyError(fmt.Errorf("[NodeRunError] %w", errors.New("bad gateway")), "ToiletGPT")
	assert.Equal(t, "ToiletGPT encountered an error: bad gateway", err.Message)
}
