package logformat

import "fmt"

// DJB2 computes the classic Bernstein hash used for the agent_hash field.
func DJB2(s string) uint32 {
	var hash uint32 = 5381
	for i := 0; i < len(s); i++ {
		hash = hash*33 + uint32(s[i])
	}
	return hash
}

// AgentHex renders hash the same way the original's printf("%x") does: no
// leading zeros, lowercase hex.
func AgentHex(hash uint32) string {
	return fmt.Sprintf("%x", hash)
}
