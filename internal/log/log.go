// Package log writes one JSON line per audited action. The shape
// (action, request id, caller, fields) is stable so log lines can be grepped
// and parsed by tests.
package log

import (
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var std = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{logrus.FieldKeyTime: "ts", logrus.FieldKeyMsg: "action"},
	})
	return l
}

// SetOutput redirects every subsequent entry to w.
func SetOutput(w io.Writer) { std.SetOutput(w) }

func Writer() io.Writer { return std.Out }

// SetLevel parses a logrus level name; unknown names keep the current level.
func SetLevel(name string) {
	if lvl, err := logrus.ParseLevel(name); err == nil {
		std.SetLevel(lvl)
	}
}

// Logger exposes the underlying logger for code without a request context.
func Logger() *logrus.Logger { return std }

func entry(c *fiber.Ctx, err error, fields map[string]any) *logrus.Entry {
	e := logrus.NewEntry(std)
	if c != nil {
		e = e.WithFields(logrus.Fields{
			"ip":     c.IP(),
			"method": c.Method(),
			"path":   c.Path(),
			"status": c.Response().StatusCode(),
		})
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e = e.WithField("req_id", rid)
		}
		if id, ok := c.Locals("subject").(string); ok && id != "" {
			e = e.WithField("user_id", id)
		}
	}
	if len(fields) > 0 {
		e = e.WithField("fields", fields)
	}
	if err != nil {
		e = e.WithField("err", err.Error())
	}
	return e
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { entry(c, nil, fields).Info(action) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, nil, fields).WithField("audit", true).Info(action)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, nil, fields).Warn(action)
}
func Warn(c *fiber.Ctx, action string, err error, fields map[string]any) {
	entry(c, err, fields).Warn(action)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	entry(c, err, fields).Error(action)
}
