// Package sftptest 提供测试用的进程内SSH+SFTP服务器
// 只支持密码认证,文件操作被限制在指定根目录下
package sftptest

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

type Server struct {
	username string
	password string
	rootDir  string

	mu        sync.Mutex
	listener  net.Listener
	config    *ssh.ServerConfig
	running   bool
	stopChan  chan struct{}
	connCount int
}

// NewServer 创建服务器实例,rootDir不存在时自动创建
func NewServer(username, password, rootDir string) (*Server, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	// 每个实例现场生成主机密钥,测试无需携带固定密钥材料
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("building host signer: %w", err)
	}

	s := &Server{
		username: username,
		password: password,
		rootDir:  rootDir,
		stopChan: make(chan struct{}),
	}

	s.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == s.username && string(pass) == s.password {
				return nil, nil
			}
			return nil, fmt.Errorf("authentication failed for %q", c.User())
		},
	}
	s.config.AddHostKey(signer)

	return s, nil
}

// Start 在127.0.0.1的随机端口上开始监听
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	s.listener = listener
	s.running = true

	go s.acceptConnections()
	return nil
}

// Stop 停止监听,已建立的会话随连接关闭而终止
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("server is not running")
	}

	close(s.stopChan)
	s.running = false
	return s.listener.Close()
}

// Port 实际监听的端口
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// RootDir 文件操作的根目录
func (s *Server) RootDir() string {
	return s.rootDir
}

// ConnCount 已接受的TCP连接数
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connCount
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) acceptConnections() {
	for {
		select {
		case <-s.stopChan:
			return
		default:
			conn, err := s.listener.Accept()
			if err != nil {
				if !s.isRunning() {
					return
				}
				continue
			}
			s.mu.Lock()
			s.connCount++
			s.mu.Unlock()
			go s.handleConnection(conn)
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		return
	}
	defer sshConn.Close()

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go s.handleChannel(channel, requests)
	}
}

func (s *Server) handleChannel(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	for req := range requests {
		if req.Type != "subsystem" || string(req.Payload[4:]) != "sftp" {
			req.Reply(false, nil)
			continue
		}
		req.Reply(true, nil)

		handlers := &rootedHandlers{rootDir: s.rootDir}
		server := sftp.NewRequestServer(channel, sftp.Handlers{
			FileGet:  handlers,
			FilePut:  handlers,
			FileList: handlers,
			FileCmd:  handlers,
		})
		if err := server.Serve(); err != nil && err != io.EOF {
			return
		}
		return
	}
}

// rootedHandlers 把所有SFTP请求映射到根目录之下
type rootedHandlers struct {
	rootDir string
}

func (h *rootedHandlers) local(requestPath string) string {
	return filepath.Join(h.rootDir, filepath.FromSlash(requestPath))
}

func (h *rootedHandlers) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	return os.Open(h.local(r.Filepath))
}

func (h *rootedHandlers) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	target := h.local(r.Filepath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

func (h *rootedHandlers) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	target := h.local(r.Filepath)

	switch r.Method {
	case "List":
		entries, err := os.ReadDir(target)
		if err != nil {
			return nil, err
		}
		infos := make([]os.FileInfo, 0, len(entries))
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			infos = append(infos, info)
		}
		return listerat(infos), nil

	case "Stat":
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		return listerat([]os.FileInfo{info}), nil

	default:
		return nil, fmt.Errorf("unsupported list method: %s", r.Method)
	}
}

func (h *rootedHandlers) Filecmd(r *sftp.Request) error {
	target := h.local(r.Filepath)

	switch r.Method {
	case "Remove", "Rmdir":
		return os.Remove(target)
	case "Rename":
		return os.Rename(target, h.local(r.Target))
	case "Mkdir":
		return os.Mkdir(target, 0o755)
	case "Setstat":
		return nil
	default:
		return fmt.Errorf("unsupported file command: %s", r.Method)
	}
}

// listerat 让[]os.FileInfo实现sftp.ListerAt
type listerat []os.FileInfo

func (l listerat) ListAt(ls []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}
	n := copy(ls, l[offset:])
	if n < len(ls) {
		return n, io.EOF
	}
	return n, nil
}
