package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeTXTRoundTrip(t *testing.T) {
	info := &BridgeInfo{
		Context:     "dummy",
		Description: "Simulated IIO context",
		Backend:     "mem",
		Version:     "0.6-dev",
	}

	strs := TXTRecordsToStrings(EncodeBridgeTXT(info))
	assert.Equal(t, []string{
		"backend=mem",
		"ctx=dummy",
		"desc=Simulated IIO context",
		"ver=0.6-dev",
	}, strs)

	got, err := DecodeBridgeTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestBridgeTXTOptionalFields(t *testing.T) {
	txt := EncodeBridgeTXT(&BridgeInfo{Context: "adc"})
	assert.Equal(t, TXTRecordMap{TXTKeyContext: "adc"}, txt)
}

func TestDecodeBridgeTXTErrors(t *testing.T) {
	_, err := DecodeBridgeTXT(TXTRecordMap{TXTKeyBackend: "mem"})
	assert.ErrorIs(t, err, ErrMissingRequired)

	_, err = DecodeBridgeTXT(TXTRecordMap{TXTKeyContext: ""})
	assert.ErrorIs(t, err, ErrInvalidTXTRecord)
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "b=x=y", "flag", ""})
	assert.Equal(t, TXTRecordMap{"a": "1", "b": "x=y", "flag": ""}, txt)
}

func TestValidateInstanceName(t *testing.T) {
	assert.NoError(t, ValidateInstanceName("dummy"))
	assert.Error(t, ValidateInstanceName(""))
	assert.ErrorIs(t, ValidateInstanceName(string(make([]byte, 64))), ErrInstanceNameTooLong)
}

func TestEntryToBridge(t *testing.T) {
	entry := zeroconf.NewServiceEntry("dummy", ServiceType, Domain)
	entry.HostName = "lab-pi.local."
	entry.Port = 30431
	entry.Text = []string{"ctx=dummy", "backend=mem", "desc=Simulated IIO context"}
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	entry.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}

	svc := entryToBridge(entry)
	require.NotNil(t, svc)
	assert.Equal(t, "dummy", svc.InstanceName)
	assert.Equal(t, uint16(30431), svc.Port)
	assert.Equal(t, []string{"192.168.1.20", "fe80::1"}, svc.Addresses)
	assert.Equal(t, "mem", svc.Backend)
	assert.Equal(t, "ip:192.168.1.20:30431", svc.URI())

	entry.Text = []string{"backend=mem"}
	assert.Nil(t, entryToBridge(entry), "entries without ctx are not bridges")
}

func TestBridgeServiceAddress(t *testing.T) {
	svc := &BridgeService{Host: "lab-pi.local.", Port: 1234}
	assert.Equal(t, "lab-pi.local.:1234", svc.Address())

	svc.Addresses = []string{"fe80::1"}
	assert.Equal(t, "[fe80::1]:1234", svc.Address())
	assert.Equal(t, "ip:[fe80::1]:1234", svc.URI())
}

func TestMergeAddresses(t *testing.T) {
	got := mergeAddresses([]string{"10.0.0.1"}, []string{"10.0.0.1", "10.0.0.2"})
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, got)
}

// staticBrowser replays a fixed set of services.
type staticBrowser []*BridgeService

func (b staticBrowser) Browse(ctx context.Context) (<-chan *BridgeService, error) {
	out := make(chan *BridgeService)
	go func() {
		defer close(out)
		for _, s := range b {
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

func TestCollectSortsByInstance(t *testing.T) {
	b := staticBrowser{{InstanceName: "zeta"}, {InstanceName: "alpha"}}
	got, err := Collect(context.Background(), b, 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].InstanceName)
	assert.Equal(t, "zeta", got[1].InstanceName)
}

func TestFirst(t *testing.T) {
	svc, err := First(context.Background(), staticBrowser{{InstanceName: "adc"}}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "adc", svc.InstanceName)

	_, err = First(context.Background(), staticBrowser{}, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotFound)
}
