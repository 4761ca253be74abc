package mumbleclient

import "math"

// pingInterval is how often the client sends TCP and UDP pings (spec
// §4.6: "Every 30 s").
const pingInterval = 30 // seconds

// rttStats tracks a cumulative running mean and variance of
// round-trip delay, per spec §4.6: "n := prev_n + 1; avg := avg·(n−1)/n +
// delay/n; var := (|delay − avg|)²".
type rttStats struct {
	n   uint64
	avg float64
	vr  float64
}

func (s *rttStats) update(delayMs float64) {
	s.n++
	n := float64(s.n)
	s.avg = s.avg*(n-1)/n + delayMs/n
	s.vr = math.Abs(delayMs - s.avg) * math.Abs(delayMs-s.avg)
}

// pingState aggregates the TCP and UDP ping bookkeeping a Client carries:
// RTT stats for each path, packet counters, and the UDP-pong-miss
// tracker that drives the TCP-tunnel fallback (spec §4.6 scenario 6).
type pingState struct {
	tcpRTT rttStats
	udpRTT rttStats

	tcpPackets uint32
	udpPackets uint32

	// consecutiveUDPMisses counts UDP pings sent without a corresponding
	// pong since the last success. Reaching 2 flips tcpUDPTunnel true;
	// the next UDP pong flips it back.
	consecutiveUDPMisses int
	tcpUDPTunnel         bool
}

// onUDPPingSent records an outbound UDP ping with no reply yet. If two
// land unanswered in a row, it flips to TCP-tunnel fallback and reports
// the transition so the caller can log/emit a hook.
func (p *pingState) onUDPPingSent() (justFellBack bool) {
	p.consecutiveUDPMisses++
	if p.consecutiveUDPMisses >= 2 && !p.tcpUDPTunnel {
		p.tcpUDPTunnel = true
		return true
	}
	return false
}

// onUDPPong records a received UDP pong, resetting the miss counter and
// reporting whether this pong ends a TCP-tunnel fallback.
func (p *pingState) onUDPPong(delayMs float64) (recovered bool) {
	p.consecutiveUDPMisses = 0
	p.udpRTT.update(delayMs)
	p.udpPackets++
	if p.tcpUDPTunnel {
		p.tcpUDPTunnel = false
		return true
	}
	return false
}

func (p *pingState) onTCPPong(delayMs float64) {
	p.tcpRTT.update(delayMs)
	p.tcpPackets++
}
