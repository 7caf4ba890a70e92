package main

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NewLogger returns a development logger when debug is set and a
// production logger otherwise.
func NewLogger(debug bool) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	return logger, errors.Wrap(err, "create logger")
}
