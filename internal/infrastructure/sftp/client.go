package sftp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Client 一次请求独占的SFTP会话
// 连接描述符和会话句柄都只活到请求结束,用完必须Close
type Client struct {
	conn *ssh.Client
	sftp *sftp.Client
}

// Connect 建立SSH连接并打开SFTP子系统
// 仅支持密码认证;cfg.Timeout作用于拨号、握手和会话内每一次读写,
// 远端停滞超过该时长的会话整体失败
func Connect(cfg ConnConfig) (*Client, error) {
	sshCfg := &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
		},
		// 调用方按请求携带任意主机,没有可校验的known_hosts
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	tcpConn, err := net.DialTimeout("tcp", addr, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to sftp server %s: %w", addr, err)
	}

	wire := tcpConn
	if cfg.Timeout > 0 {
		wire = &deadlineConn{Conn: tcpConn, timeout: cfg.Timeout}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(wire, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("connecting to sftp server %s: %w", addr, err)
	}
	conn := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening sftp subsystem: %w", err)
	}

	return &Client{conn: conn, sftp: sftpClient}, nil
}

// deadlineConn 每次读写前刷新连接deadline
// 握手和SFTP的每个往返都受同一超时约束
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

// ListDirectory 列出dir下的条目
func (c *Client) ListDirectory(dir string) ([]FileEntry, error) {
	infos, err := c.sftp.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing directory %s: %w", dir, err)
	}

	entries := make([]FileEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, FileEntry{
			Name:     info.Name(),
			Path:     path.Join(dir, info.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
			IsDir:    info.IsDir(),
		})
	}
	return entries, nil
}

// Upload 将content写入remotePath,已存在的文件会被覆盖
func (c *Client) Upload(content []byte, remotePath string) error {
	// 只写打开,覆盖语义由O_TRUNC保证
	f, err := c.sftp.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("creating remote file %s: %w", remotePath, err)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("writing remote file %s: %w", remotePath, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing remote file %s: %w", remotePath, err)
	}
	return nil
}

// Download 将remotePath整个读入内存
// 没有流式路径,文件大小受调用方内存约束
func (c *Client) Download(remotePath string) ([]byte, error) {
	f, err := c.sftp.Open(remotePath)
	if err != nil {
		return nil, fmt.Errorf("opening remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading remote file %s: %w", remotePath, err)
	}
	return data, nil
}

// Exists 检查remotePath是否存在
func (c *Client) Exists(remotePath string) (bool, error) {
	_, err := c.sftp.Stat(remotePath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat remote path %s: %w", remotePath, err)
}

// Close 释放会话,尽力而为
func (c *Client) Close() error {
	var errs []error
	if c.sftp != nil {
		if err := c.sftp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsAuthError 判断连接错误是否为认证失败
func IsAuthError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}

// IsTimeoutError 判断连接错误是否为超时
func IsTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "i/o timeout")
}
