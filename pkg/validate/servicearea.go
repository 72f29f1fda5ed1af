package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// DefaultPhoneDisplay is the number users are sent to when their ZIP falls
// outside the service area.
const DefaultPhoneDisplay = "(219) 615-9477"

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// lakeCounty and porterCounty list the Northwest Indiana ZIP codes served.
var (
	lakeCounty = []string{
		"46320", "46321", "46322", "46323", "46324", "46327", "46341", "46342",
		"46373", "46375", "46376", "46377", "46394", "46401", "46402", "46403",
		"46404", "46405", "46406", "46407", "46408", "46409", "46410", "46411",
		"46312", "46319", "46356",
	}
	porterCounty = []string{
		"46301", "46303", "46304", "46307", "46308", "46310", "46311", "46347",
		"46360", "46361", "46368", "46383", "46385",
	}
)

// ServiceArea is a fixed allowlist of five digit ZIP codes. Membership is a
// business rule, so rejections point the user at a phone number instead of
// asking them to fix their input.
type ServiceArea struct {
	name  string
	phone string
	zips  map[string]struct{}
}

// NewServiceArea builds an allowlist. Entries that are not five digits are
// ignored.
func NewServiceArea(name, phone string, zips ...string) *ServiceArea {
	area := &ServiceArea{
		name:  strings.TrimSpace(name),
		phone: strings.TrimSpace(phone),
		zips:  make(map[string]struct{}, len(zips)),
	}
	for _, zip := range zips {
		zip = strings.TrimSpace(zip)
		if len(zip) != 5 || !zipPattern.MatchString(zip) {
			continue
		}
		area.zips[zip] = struct{}{}
	}
	return area
}

var (
	defaultAreaOnce sync.Once
	defaultArea     *ServiceArea
)

// DefaultServiceArea covers Lake and Porter Counties, IN.
func DefaultServiceArea() *ServiceArea {
	defaultAreaOnce.Do(func() {
		zips := append(append([]string{}, lakeCounty...), porterCounty...)
		defaultArea = NewServiceArea("Lake and Porter Counties in Northwest Indiana", DefaultPhoneDisplay, zips...)
	})
	return defaultArea
}

// Name returns the human readable area label.
func (a *ServiceArea) Name() string {
	if a == nil {
		return ""
	}
	return a.name
}

// Contains reports whether the base five digits of zip are served.
func (a *ServiceArea) Contains(zip string) bool {
	if a == nil {
		return false
	}
	trimmed := strings.TrimSpace(zip)
	if len(trimmed) < 5 {
		return false
	}
	_, ok := a.zips[trimmed[:5]]
	return ok
}

// ZIPs returns the allowlist sorted ascending.
func (a *ServiceArea) ZIPs() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.zips))
	for zip := range a.zips {
		out = append(out, zip)
	}
	sort.Strings(out)
	return out
}

// OutOfAreaMessage is shown for well formed ZIPs outside the allowlist.
func (a *ServiceArea) OutOfAreaMessage() string {
	phone := DefaultPhoneDisplay
	name := "Lake and Porter Counties in Northwest Indiana"
	if a != nil {
		if a.phone != "" {
			phone = a.phone
		}
		if a.name != "" {
			name = a.name
		}
	}
	return fmt.Sprintf("Sorry, we currently only serve %s. Please call us at %s to discuss service availability.", name, phone)
}

// Validate checks presence, 5 digit or ZIP+4 shape, then allowlist
// membership of the base five digits.
func (a *ServiceArea) Validate(zip string) Result {
	trimmed := strings.TrimSpace(zip)
	if trimmed == "" {
		return fail(CodeEmpty, "ZIP code is required")
	}
	if !zipPattern.MatchString(trimmed) {
		return fail(CodeFormat, "ZIP code must be 5 digits")
	}
	if !a.Contains(trimmed) {
		return fail(CodeOutOfService, a.OutOfAreaMessage())
	}
	return OK()
}
