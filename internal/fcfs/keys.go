package fcfs

import "strings"

// Coordination-store key layout. Every per-event key lives under the internal
// sequence number, never the external event id; the single mapping key is the
// only place the external id appears.
//
//	fcfs:event:<externalID>   -> internal sequence number (the mapping)
//	fcfs:<seq>:capacity       -> prize count, decimal string
//	fcfs:<seq>:start          -> start time, RFC3339Nano
//	fcfs:<seq>:answer         -> accepted trivia answer token
//	fcfs:<seq>:ended          -> "0" or "1", monotonic 0->1
//	fcfs:<seq>:winners        -> sorted set, member=userID score=arrival ms
//	fcfs:<seq>:participants   -> set of every userID that completed a request
const (
	keyPrefix       = "fcfs:"
	startKeyPattern = keyPrefix + "*:start"

	endedFalse = "0"
	endedTrue  = "1"
)

func eventIDKey(externalID string) string { return keyPrefix + "event:" + externalID }
func capacityKey(seq string) string       { return keyPrefix + seq + ":capacity" }
func startKey(seq string) string          { return keyPrefix + seq + ":start" }
func answerKey(seq string) string         { return keyPrefix + seq + ":answer" }
func endedKey(seq string) string          { return keyPrefix + seq + ":ended" }
func winnersKey(seq string) string        { return keyPrefix + seq + ":winners" }
func participantsKey(seq string) string   { return keyPrefix + seq + ":participants" }

// recordKeys returns every per-event key, for purging after reconciliation.
func recordKeys(seq string) []string {
	return []string{
		capacityKey(seq),
		startKey(seq),
		answerKey(seq),
		endedKey(seq),
		winnersKey(seq),
		participantsKey(seq),
	}
}

// seqFromStartKey extracts the sequence number from a start-time key.
func seqFromStartKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return "", false
	}
	seq, ok := strings.CutSuffix(rest, ":start")
	if !ok || seq == "" || strings.Contains(seq, ":") {
		return "", false
	}
	return seq, true
}
