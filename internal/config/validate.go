package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/miekg/dns"

	"github.com/evanofslack/cfdns/internal/provider"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// "@" is the zone apex.
	_ = v.RegisterValidation("dnsname", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "@" {
			return true
		}
		_, ok := dns.IsDomainName(name)
		return ok
	})
	return v
}

// Validate checks field constraints and cross references. All problems are
// reported together.
func Validate(cfg *Config) error {
	var errs []error

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}

	interfaces := map[string]bool{}
	for i, iface := range cfg.Interfaces {
		if iface.Name == "" {
			continue
		}
		if interfaces[iface.Name] {
			errs = append(errs, fmt.Errorf("interfaces[%d]: duplicate interface '%s'", i, iface.Name))
		}
		interfaces[iface.Name] = true
	}

	zones := map[string]bool{}
	for i, zone := range cfg.Zones {
		if zone.Name == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSuffix(zone.Name, "."))
		if zones[key] {
			errs = append(errs, fmt.Errorf("zones[%d]: duplicate zone '%s'", i, zone.Name))
		}
		zones[key] = true
	}

	type binding struct{ name, zone, typ string }
	bindings := map[binding]bool{}
	for i, r := range cfg.Records {
		if r.Name == "" || r.Zone == "" {
			continue
		}
		if r.Interface != "" && !interfaces[r.Interface] {
			errs = append(errs, fmt.Errorf("records[%d]: record '%s' is bound to undefined interface '%s'", i, r.Name, r.Interface))
		}
		// Keyed on the qualified name so "home" and "home.example.com" collide.
		zone := strings.ToLower(strings.TrimSuffix(r.Zone, "."))
		key := binding{provider.QualifyName(r.Name, zone), zone, r.Type}
		if bindings[key] {
			errs = append(errs, fmt.Errorf("records[%d]: duplicate %s record '%s' in zone '%s'", i, r.Type, r.Name, r.Zone))
		}
		bindings[key] = true
	}

	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got '%v'", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	case "dnsname":
		return fmt.Errorf("%s '%v' is not a valid domain name", field, fe.Value())
	case "hostname_port":
		return fmt.Errorf("%s '%v' must be host:port", field, fe.Value())
	}
	return fmt.Errorf("%s failed '%s' validation", field, fe.Tag())
}
