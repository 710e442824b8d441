// Package apps implements the rankstream demo applications.
package apps

import (
	"context"

	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// App is a runnable application.
type App interface {
	Run(ctx context.Context, args []string) error
}
