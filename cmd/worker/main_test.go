package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanofresh/invoicer/internal/app"
	_ "github.com/nanofresh/invoicer/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
