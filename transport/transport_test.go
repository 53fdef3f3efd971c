package transport

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/packet"
)

func TestWriteReadRoundTripOverTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 4096)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		reply := packet.Build(packet.FESL, []byte("fsys"), []byte("TXN=Hello"), packet.FeslSinglePacketResponse, 1)
		_, _ = conn.Write(reply.Bytes())
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := New(host, port, packet.FESL, false, WithTimeout(2*time.Second))
	defer c.Close()

	req := packet.Build(packet.FESL, []byte("fsys"), []byte("TXN=Hello"), packet.FeslSinglePacketRequest, 1)
	require.NoError(t, c.Write(req))

	resp, err := c.Read()
	require.NoError(t, err)
	require.Equal(t, 1, resp.GetTID())

	<-done
}

func TestResolveReturnsLiteralIPUnchanged(t *testing.T) {
	ip, err := resolve("127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", ip)
}

func TestResolveUsesOverrideTable(t *testing.T) {
	const host = "bfbc2-pc-server.fesl.ea.com"
	bfconst.DNSOverrides[host] = "203.0.113.10"
	defer delete(bfconst.DNSOverrides, host)

	ip, err := resolve(host)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.10", ip)
}
