package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

var _ CodeAnalyzer = (*Client)(nil)

var (
	// ErrNotReady is returned until the initialize handshake has completed.
	ErrNotReady = errors.New("lsp: server is initializing")
	// ErrClosed is returned once the connection to the server is gone.
	ErrClosed = errors.New("lsp: connection closed")
)

func (e *ResponseError) Error() string {
	return fmt.Sprintf("lsp error %d: %s", e.Code, e.Message)
}

// Client は gopls プロセスを管理する構造体です
type Client struct {
	stdin  io.WriteCloser
	stdout *bufio.Reader
	kill   func() error
	logger *slog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	idSeq   int
	pending map[int]chan *JSONRPCMessage

	ready   chan struct{}
	initErr error

	closed  chan struct{}
	readErr error
}

// NewClient は gopls を起動し、Initialize をバックグラウンドで開始します。
// Initialize が終わるまで Definition は ErrNotReady を返します。
func NewClient(rootPath, goplsPath string, logger *slog.Logger) (*Client, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}
	if goplsPath == "" {
		goplsPath = "gopls"
	}

	bin, err := exec.LookPath(goplsPath)
	if err != nil {
		return nil, fmt.Errorf("gopls not found: %w", err)
	}

	cmd := exec.Command(bin)
	cmd.Dir = absRoot
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	// 標準エラー出力もキャプチャしておくとデバッグ時に役立ちます
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	client := newClient(stdoutPipe, stdin, logger)
	client.kill = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := cmd.Process.Kill()
		_ = cmd.Wait()
		return err
	}

	// RootURI を正しく設定することが重要です
	go client.initialize(context.Background(), InitializeParams{
		ProcessID: os.Getpid(),
		RootURI:   "file://" + absRoot,
	})

	return client, nil
}

// newClient speaks JSON-RPC over r and w. It starts the read loop but not
// the handshake.
func newClient(r io.Reader, w io.WriteCloser, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		stdin:   w,
		stdout:  bufio.NewReader(r),
		logger:  logger,
		pending: make(map[int]chan *JSONRPCMessage),
		ready:   make(chan struct{}),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) initialize(ctx context.Context, params InitializeParams) {
	defer close(c.ready)

	if _, err := c.sendRequest(ctx, "initialize", params); err != nil {
		c.initErr = fmt.Errorf("failed to initialize: %w", err)
		c.logger.Warn("gopls initialize failed", "err", err)
		return
	}
	// Initialized Notification
	if err := c.sendNotification("initialized", struct{}{}); err != nil {
		c.initErr = fmt.Errorf("failed to initialize: %w", err)
		return
	}
	c.logger.Info("gopls initialized", "root", params.RootURI)
}

// Ready is closed when the handshake has finished, successfully or not.
func (c *Client) Ready() <-chan struct{} { return c.ready }

func (c *Client) Close() error {
	var err error
	if c.kill != nil {
		err = c.kill()
	}
	if cerr := c.stdin.Close(); err == nil {
		err = cerr
	}
	return err
}

// Definition は指定されたファイル・位置のシンボルの定義位置を返します。
// line と char は LSP と同じく 0-based です。
func (c *Client) Definition(ctx context.Context, filePath string, line, char int) ([]Location, error) {
	select {
	case <-c.ready:
	default:
		return nil, ErrNotReady
	}
	if c.initErr != nil {
		return nil, c.initErr
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}

	params := TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: "file://" + absPath},
		Position:     Position{Line: line, Character: char},
	}

	resp, err := c.sendRequest(ctx, "textDocument/definition", params)
	if err != nil {
		return nil, err
	}
	return parseDefinition(resp)
}

// parseDefinition accepts every answer shape textDocument/definition
// allows: null, Location, []Location or []LocationLink.
func parseDefinition(raw json.RawMessage) ([]Location, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var loc Location
		if err := json.Unmarshal(raw, &loc); err != nil {
			return nil, fmt.Errorf("failed to parse definition: %w", err)
		}
		return []Location{loc}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	locations := make([]Location, 0, len(items))
	for _, item := range items {
		var link LocationLink
		if err := json.Unmarshal(item, &link); err == nil && link.TargetURI != "" {
			locations = append(locations, Location{URI: link.TargetURI, Range: link.TargetSelectionRange})
			continue
		}
		var loc Location
		if err := json.Unmarshal(item, &loc); err != nil {
			return nil, fmt.Errorf("failed to parse definition: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// --- Internal Helpers ---

func (c *Client) sendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	ch := make(chan *JSONRPCMessage, 1)

	c.mu.Lock()
	c.idSeq++
	id := c.idSeq
	c.pending[id] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}

	req := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}
	if err := c.write(req); err != nil {
		forget()
		return nil, err
	}

	select {
	case msg := <-ch:
		if msg.Error != nil {
			return nil, msg.Error
		}
		return msg.Result, nil
	case <-ctx.Done():
		forget()
		_ = c.sendNotification("$/cancelRequest", CancelParams{ID: id})
		return nil, ctx.Err()
	case <-c.closed:
		forget()
		return nil, fmt.Errorf("%w: %v", ErrClosed, c.readErr)
	}
}

func (c *Client) sendNotification(method string, params interface{}) error {
	return c.write(JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
}

func (c *Client) write(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(c.stdin, v)
}

// readLoop dispatches responses to their callers until the stream ends.
func (c *Client) readLoop() {
	for {
		body, err := readFrame(c.stdout)
		if err != nil {
			c.readErr = err
			close(c.closed)
			return
		}

		var msg JSONRPCMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			c.logger.Warn("gopls sent malformed message", "err", err)
			continue
		}

		switch {
		case msg.ID != nil && msg.Method == "":
			c.mu.Lock()
			ch, ok := c.pending[*msg.ID]
			delete(c.pending, *msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- &msg
			}
		case msg.ID != nil:
			// サーバーからのリクエスト (workDoneProgress/create など) には null で応答
			_ = c.write(JSONRPCResponse{JSONRPC: "2.0", ID: *msg.ID})
		default:
			// Notification はスキップ
			c.logger.Debug("gopls notification", "method", msg.Method)
		}
	}
}

func writeFrame(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Content-Length: %d\r\n\r\n%s", len(body), body)
	return err
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length: ") {
			length, err = strconv.Atoi(strings.TrimPrefix(line, "Content-Length: "))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}
	if length < 0 {
		return nil, errors.New("missing Content-Length header")
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
