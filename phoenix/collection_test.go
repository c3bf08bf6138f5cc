package phoenix

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCollectionKeepsMostSevere(t *testing.T) {
	var c ErrorCollection
	assert.NoError(t, c.Err())
	assert.Equal(t, OK, c.Code())

	c.Add(nil)
	c.Add(FeatureNotSupported)
	assert.Equal(t, FeatureNotSupported, c.Code())

	first := fmt.Errorf("slot 0: %w", RxTimeout)
	c.Add(first)
	c.Add(InvalidParamValue)
	c.Add(GeneralWarning)
	c.Add(nil)

	assert.Equal(t, RxTimeout, c.Code())
	assert.Same(t, first, c.Err())
}

func TestWorst(t *testing.T) {
	assert.NoError(t, Worst())
	assert.NoError(t, Worst(nil, nil))
	assert.Equal(t, error(NotImplemented), Worst(nil, NotImplemented, nil))
	assert.Equal(t, GeneralError, CodeOf(Worst(NotImplemented, errors.New("io"))))
	assert.Equal(t, error(TxFailed), Worst(TxFailed, RxTimeout))
}
