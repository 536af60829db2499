package captchacache

import "fmt"

// commandInfo classifies one COMMAND INFO reply
type commandInfo int

const (
	infoPresent commandInfo = iota
	infoAbsent
	infoMalformed
)

func (i commandInfo) String() string {
	switch i {
	case infoPresent:
		return "present"
	case infoAbsent:
		return "absent"
	default:
		return "malformed"
	}
}

// decodeCommandInfo inspects the reply to COMMAND INFO <name>. The server
// answers with one entry per name and a nil entry for unknown commands.
func decodeCommandInfo(reply interface{}) commandInfo {
	switch v := reply.(type) {
	case nil:
		return infoAbsent
	case []interface{}:
		if len(v) == 0 {
			return infoMalformed
		}
		if v[len(v)-1] == nil {
			return infoAbsent
		}
		return infoPresent
	default:
		return infoMalformed
	}
}

// decodeModuleList turns a MODULE LIST reply into the string fields of each
// module record. RESP2 records are flat name/value arrays, RESP3 records are maps.
func decodeModuleList(reply interface{}) ([][]string, error) {
	if reply == nil {
		return nil, nil
	}

	list, ok := reply.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: MODULE LIST replied with %T", ErrExtensionProtocol, reply)
	}

	records := make([][]string, 0, len(list))
	for i, entry := range list {
		var fields []string
		switch record := entry.(type) {
		case []interface{}:
			for _, field := range record {
				if s, ok := field.(string); ok {
					fields = append(fields, s)
				}
			}
		case map[interface{}]interface{}:
			for _, value := range record {
				if s, ok := value.(string); ok {
					fields = append(fields, s)
				}
			}
		case map[string]interface{}:
			for _, value := range record {
				if s, ok := value.(string); ok {
					fields = append(fields, s)
				}
			}
		default:
			return nil, fmt.Errorf("%w: MODULE LIST record %d has type %T", ErrExtensionProtocol, i, entry)
		}
		records = append(records, fields)
	}

	return records, nil
}
