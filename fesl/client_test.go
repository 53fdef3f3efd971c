package fesl

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/packet"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

// selfSignedCert generates a throwaway certificate so the legacy-cipher TLS
// dial path (which never verifies the server certificate) has something to
// shake hands with.
func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}
}

func listenTLS(t *testing.T) net.Listener {
	t.Helper()
	cert := selfSignedCert(t)
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	require.NoError(t, err)
	return ln
}

func readPacket(t *testing.T, conn net.Conn, family packet.Family) *packet.Packet {
	t.Helper()
	header := make([]byte, packet.HeaderLength)
	_, err := readFull(conn, header)
	require.NoError(t, err)
	p := &packet.Packet{Family: family, Header: header}
	require.NoError(t, p.ValidateHeader())
	body := make([]byte, p.IndicatedBodyLength())
	_, err = readFull(conn, body)
	require.NoError(t, err)
	p.Body = body
	return p
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func backendFor(t *testing.T, ln net.Listener) bfconst.Backend {
	t.Helper()
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return bfconst.Backend{Name: "test", Host: host, Port: port, ClientString: "bfbc2-pc", Platform: bfconst.PlatformPC}
}

func TestClientLoginPerformsHelloThenLoginAndCachesLKey(t *testing.T) {
	ln := listenTLS(t)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		require.NoError(t, err)
		defer conn.Close()

		hello := readPacket(t, conn, packet.FESL)
		helloPl := payload.Parse(hello.GetData())
		txn, _ := helloPl.GetStr("TXN", "")
		require.Equal(t, "Hello", txn)

		helloResp := packet.Build(packet.FESL, []byte("fsys"),
			[]byte("TXN=Hello\ntheaterIp=theater.example.com\ntheaterPort=18321"),
			packet.FeslSinglePacketResponse, hello.GetTID())
		_, err = conn.Write(helloResp.Bytes())
		require.NoError(t, err)

		memcheckPrompt := packet.Build(packet.FESL, []byte("fsys"), []byte("TXN=MemCheck"), packet.FeslPing, 0)
		_, err = conn.Write(memcheckPrompt.Bytes())
		require.NoError(t, err)

		// Client replies to the memcheck prompt before Login proceeds.
		_ = readPacket(t, conn, packet.FESL)

		login := readPacket(t, conn, packet.FESL)
		loginPl := payload.Parse(login.GetData())
		name, _ := loginPl.GetStr("name", "")
		require.Equal(t, "player1", name)

		loginResp := packet.Build(packet.FESL, []byte("acct"), []byte("TXN=Login\nlkey=SOMELKEY"), packet.FeslSinglePacketResponse, login.GetTID())
		_, err = conn.Write(loginResp.Bytes())
		require.NoError(t, err)

		goodbye := readPacket(t, conn, packet.FESL)
		gbPl := payload.Parse(goodbye.GetData())
		gbTxn, _ := gbPl.GetStr("TXN", "")
		require.Equal(t, "Goodbye", gbTxn)
		gbResp := packet.Build(packet.FESL, []byte("fsys"), []byte("TXN=Goodbye"), packet.FeslSinglePacketResponse, goodbye.GetTID())
		_, _ = conn.Write(gbResp.Bytes())
	}()

	backend := backendFor(t, ln)
	c := New(backend, "player1", "secret", 2*time.Second)

	lkey, err := c.GetLKey()
	require.NoError(t, err)
	require.Equal(t, "SOMELKEY", lkey)

	host, port, err := c.GetTheaterDetails()
	require.NoError(t, err)
	require.Equal(t, "theater.example.com", host)
	require.Equal(t, 18321, port)

	require.NoError(t, c.Close())
	<-done
}
