package discovery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TXTRecordMap holds TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeListenerTXT builds the TXT records for a listener.
func EncodeListenerTXT(info *ListenerInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeySession:     info.SessionID,
		TXTKeyProtocol:    strconv.FormatUint(uint64(info.Protocol), 10),
		TXTKeyDeviceCount: strconv.Itoa(info.DeviceCount),
	}
	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}
	return txt
}

// DecodeListenerTXT parses listener TXT records. InstanceName and Port are
// not part of TXT and stay zero.
func DecodeListenerTXT(txt TXTRecordMap) (*ListenerInfo, error) {
	info := &ListenerInfo{}

	var ok bool
	if info.SessionID, ok = txt[TXTKeySession]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeySession)
	}

	pv, ok := txt[TXTKeyProtocol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyProtocol)
	}
	n, err := strconv.ParseUint(pv, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: protocol %q", ErrInvalidTXTRecord, pv)
	}
	info.Protocol = uint8(n)

	if dc, ok := txt[TXTKeyDeviceCount]; ok && dc != "" {
		count, err := strconv.Atoi(dc)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: device count %q", ErrInvalidTXTRecord, dc)
		}
		info.DeviceCount = count
	}

	info.Name = txt[TXTKeyName]
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings. A bare key maps to "".
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// ValidateInstanceName checks that name fits a DNS label.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
