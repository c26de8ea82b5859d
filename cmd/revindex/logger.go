//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2026 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package main

import (
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/weaviate/revindex/usecases/config"
)

// Version is set at link time.
var Version = "dev"

type buildInfoFormatter struct {
	logrus.Formatter
	version, goVersion string
}

func (f *buildInfoFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Data["build_version"] = f.version
	e.Data["build_go_version"] = f.goVersion
	return f.Formatter.Format(e)
}

// newLogger expects cfg to be validated already.
func newLogger(cfg config.Logging) (*logrus.Logger, error) {
	logger := logrus.New()

	var formatter logrus.Formatter = &logrus.TextFormatter{}
	if cfg.Format == "json" {
		formatter = &logrus.JSONFormatter{}
	}
	logger.SetFormatter(&buildInfoFormatter{
		Formatter: formatter,
		version:   Version,
		goVersion: runtime.Version(),
	})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	return logger, nil
}
