package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	tests := []struct {
		svc     Service
		name    string
		columns int
		agg     bool
	}{
		{Alias, "alias", 1, true},
		{Domain, "domain", 1, false},
		{Credentials, "credentials", 2, false},
		{NetAddr, "netaddr", 1, false},
		{UserInfo, "userinfo", 3, false},
		{Source, "source", 1, false},
		{MailAddr, "mailaddr", 1, false},
		{AddrName, "addrname", 1, false},
		{MailAddrMap, "mailaddrmap", 1, true},
	}

	require.Len(t, All(), len(tests))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.svc.String())
			assert.Equal(t, tt.columns, tt.svc.Columns())
			assert.Equal(t, tt.agg, tt.svc.Aggregate())
			assert.Equal(t, "query_"+tt.name, tt.svc.QueryKey())
			assert.True(t, tt.svc.Valid())

			parsed, err := Parse(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.svc, parsed)
		})
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse("relayhost")
	assert.Error(t, err)
}

func TestInvalidService(t *testing.T) {
	s := Service(42)
	assert.False(t, s.Valid())
	assert.Equal(t, 0, s.Columns())
	assert.Equal(t, "service(42)", s.String())
}
