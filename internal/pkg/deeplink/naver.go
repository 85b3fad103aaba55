// Package deeplink renders navigation-app URLs for a visiting order.
package deeplink

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Stop is one place on the route.
type Stop struct {
	Name string
	Lat  float64
	Lng  float64
}

// Builder renders Naver Map route scheme URLs
// (nmap://route/<mode>?slat=..&dlat=..&v1lat=..).
type Builder struct {
	Mode       string // car, public, walk, bicycle
	StartLabel string
	AppName    string // optional appname parameter
}

// NewBuilder returns a Builder with car routing and the given start label.
func NewBuilder(mode, startLabel, appName string) *Builder {
	if mode == "" {
		mode = "car"
	}
	return &Builder{Mode: mode, StartLabel: startLabel, AppName: appName}
}

// Build returns the route link from start through stops. The last stop is
// the destination and all earlier stops are waypoints in order. An empty
// stop list yields "".
func (b *Builder) Build(start Stop, stops []Stop) string {
	if len(stops) == 0 {
		return ""
	}

	dest := stops[len(stops)-1]
	label := start.Name
	if label == "" {
		label = b.StartLabel
	}

	var sb strings.Builder
	sb.WriteString("nmap://route/")
	sb.WriteString(b.Mode)
	fmt.Fprintf(&sb, "?slat=%s&slng=%s&sname=%s", coord(start.Lat), coord(start.Lng), escape(label))
	fmt.Fprintf(&sb, "&dlat=%s&dlng=%s&dname=%s", coord(dest.Lat), coord(dest.Lng), escape(dest.Name))

	for i, wp := range stops[:len(stops)-1] {
		n := i + 1
		fmt.Fprintf(&sb, "&v%dlat=%s&v%dlng=%s&v%dname=%s",
			n, coord(wp.Lat), n, coord(wp.Lng), n, escape(wp.Name))
	}

	if b.AppName != "" {
		sb.WriteString("&appname=")
		sb.WriteString(escape(b.AppName))
	}
	return sb.String()
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escape percent-encodes a query value, using %20 for spaces.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
