package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out))
	assert.Equal(t, "algodiff "+version+"\n", out.String())
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(nil, &out))
	assert.Contains(t, out.String(), "algodiff train")

	err := run([]string{"bogus"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "bogus"`)
}

func TestRun_Train(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"train", "-workers", "1", "-epochs", "5", "-sync", "-optimizer", "adagrad"}, &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "1 synchronized workers, adagrad, 5 epochs")
	assert.Contains(t, s, "worker 0")
	assert.Contains(t, s, "Updates:   200")
}

func TestRun_TrainErrors(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"train", "-optimizer", "rmsprop"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown optimizer")

	assert.Error(t, run([]string{"train", "extra"}, &out))
	assert.Error(t, run([]string{"train", "-nope"}, &out))
}
