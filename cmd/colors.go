package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/khanhnv2901/site-inspector/internal/domain/site"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "valid", "up":
		return colorSuccess(status)
	case "bad_chain", "bad_name", "redirect":
		return colorWarn(status)
	case "error", "down", "unknown", "timeout":
		return colorError(status)
	default:
		return status
	}
}

// formatBool colors a property that is good when true.
func formatBool(v bool) string {
	if v {
		return colorSuccess("yes")
	}
	return colorError("no")
}

// formatBoolInverted colors a property that is bad when true.
func formatBoolInverted(v bool) string {
	if v {
		return colorError("yes")
	}
	return colorSuccess("no")
}

func formatNeutral(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatEndpointState(e *site.EndpointReport) string {
	var state string
	switch {
	case e.TimedOut:
		state = formatStatusWithColor("timeout")
	case !e.Responds:
		state = formatStatusWithColor("down")
	case e.Redirect:
		state = fmt.Sprintf("%s -> %s", formatStatusWithColor("redirect"), e.ResolvesTo)
	case e.Up:
		state = formatStatusWithColor("up")
	default:
		state = formatStatusWithColor("error")
	}
	if e.StatusCode != 0 {
		state = fmt.Sprintf("%s (%d)", state, e.StatusCode)
	}
	if e.TLS != nil && e.TLS.Validity != "" && e.TLS.Validity != site.ValidityValid {
		state = fmt.Sprintf("%s [%s]", state, formatStatusWithColor(string(e.TLS.Validity)))
	}
	return state
}
