package workflow

import (
	"fmt"
	"net/netip"
	"regexp"

	"dnsapply/internal/model"
)

var domainRe = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,63}$`)

func isDomain(s string) bool {
	return domainRe.MatchString(s)
}

func isIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

func isIPv6(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is6() && !addr.Is4In6()
}

// validatePayload checks a submit payload against domain rules. The data
// field must match the declared record type: A takes an IPv4 address,
// AAAA an IPv6 address, CNAME and PTR a domain name.
func validatePayload(req SubmitRequest) error {
	if req.Action != model.ActionAdd {
		return fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action)
	}
	if !req.RecordType.Valid() {
		return fmt.Errorf("%w: unknown record type %q", ErrValidation, req.RecordType)
	}
	if !isDomain(req.RecordName) {
		return fmt.Errorf("%w: record name %q is not a domain name", ErrValidation, req.RecordName)
	}
	switch req.RecordType {
	case model.TypeA:
		if !isIPv4(req.RecordData) {
			return fmt.Errorf("%w: A record data must be an IPv4 address", ErrValidation)
		}
	case model.TypeAAAA:
		if !isIPv6(req.RecordData) {
			return fmt.Errorf("%w: AAAA record data must be an IPv6 address", ErrValidation)
		}
	case model.TypeCNAME, model.TypePTR:
		if !isDomain(req.RecordData) {
			return fmt.Errorf("%w: %s record data must be a domain name", ErrValidation, req.RecordType)
		}
	}
	return nil
}
