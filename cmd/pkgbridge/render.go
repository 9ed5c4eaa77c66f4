package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/steelcutops/pkgbridge/pkgbridge/hostgroup"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failureColor = color.New(color.FgRed)
)

func verdictColor(v operation.Verdict) *color.Color {
	switch v {
	case operation.Success:
		return successColor
	case operation.Canceled, operation.AutoRetry:
		return warnColor
	default:
		return failureColor
	}
}

// renderResults prints one line per host. Hosts that could not run the operation show the
// error instead of a verdict.
func renderResults(out io.Writer, req hostgroup.Request, results []hostgroup.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s: %s %s via %s: %s\n",
				r.Hostname, req.Operation, req.Package.ID, req.Manager, failureColor.Sprint(r.Err))
			continue
		}

		c := verdictColor(r.Verdict)
		fmt.Fprintf(out, "%s: %s %s via %s: %s %s\n",
			r.Hostname, req.Operation, req.Package.ID, req.Manager,
			c.Sprint(r.Verdict.String()), r.Verdict.UserMessage())
	}
}
