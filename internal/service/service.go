// Package service is the static registry of lookup services the table
// answers for, with the shape each service's query must have.
package service

import (
	"fmt"
)

// Service identifies one lookup category.
type Service int

const (
	Alias Service = iota
	Domain
	Credentials
	NetAddr
	UserInfo
	Source
	MailAddr
	AddrName
	MailAddrMap

	count
)

// Params is the number of parameters every per-service query binds.
const Params = 1

// FetchQueryKey is the configuration key of the enumeration query. The
// enumeration statement takes no parameters and returns a single column.
const FetchQueryKey = "fetch_source"

// All lists every service in registry order.
func All() []Service {
	out := make([]Service, 0, count)
	for s := Alias; s < count; s++ {
		out = append(out, s)
	}
	return out
}

// String returns the wire name of the service.
func (s Service) String() string {
	switch s {
	case Alias:
		return "alias"
	case Domain:
		return "domain"
	case Credentials:
		return "credentials"
	case NetAddr:
		return "netaddr"
	case UserInfo:
		return "userinfo"
	case Source:
		return "source"
	case MailAddr:
		return "mailaddr"
	case AddrName:
		return "addrname"
	case MailAddrMap:
		return "mailaddrmap"
	default:
		return fmt.Sprintf("service(%d)", int(s))
	}
}

// Columns is the number of result columns the service's query must return.
func (s Service) Columns() int {
	switch s {
	case Credentials:
		return 2
	case UserInfo:
		return 3
	case Alias, Domain, NetAddr, Source, MailAddr, AddrName, MailAddrMap:
		return 1
	default:
		return 0
	}
}

// QueryKey is the configuration key holding the service's query text.
func (s Service) QueryKey() string {
	return "query_" + s.String()
}

// Valid reports whether s is one of the registered services.
func (s Service) Valid() bool {
	return s >= Alias && s < count
}

// Aggregate reports whether lookups join every returned row.
func (s Service) Aggregate() bool {
	return s == Alias || s == MailAddrMap
}

// Parse maps a wire name to its Service.
func Parse(name string) (Service, error) {
	for _, s := range All() {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown service %q", name)
}
