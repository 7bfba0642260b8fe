package transform

import "github.com/John-Robertt/subrules/internal/dns"

func dnsOptions(trusted ...string) dns.Options {
	return dns.Options{Trusted: trusted}
}
