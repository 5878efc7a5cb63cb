package discovery

import (
	"fmt"
	"slices"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeBridgeTXT creates TXT records for a bridge announcement.
func EncodeBridgeTXT(info *BridgeInfo) TXTRecordMap {
	txt := TXTRecordMap{TXTKeyContext: info.Context}
	if info.Description != "" {
		txt[TXTKeyDescription] = info.Description
	}
	if info.Backend != "" {
		txt[TXTKeyBackend] = info.Backend
	}
	if info.Version != "" {
		txt[TXTKeyVersion] = info.Version
	}
	return txt
}

// DecodeBridgeTXT parses TXT records of a bridge announcement.
func DecodeBridgeTXT(txt TXTRecordMap) (*BridgeInfo, error) {
	ctx, ok := txt[TXTKeyContext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyContext)
	}
	if ctx == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrInvalidTXTRecord, TXTKeyContext)
	}
	return &BridgeInfo{
		Context:     ctx,
		Description: txt[TXTKeyDescription],
		Backend:     txt[TXTKeyBackend],
		Version:     txt[TXTKeyVersion],
	}, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings in
// key order.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	keys := make([]string, 0, len(txt))
	for k := range txt {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	result := make([]string, 0, len(txt))
	for _, k := range keys {
		result = append(result, k+"="+txt[k])
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings. A bare key maps to "".
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		if s == "" {
			continue
		}
		k, v, _ := strings.Cut(s, "=")
		txt[k] = v
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
