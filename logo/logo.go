// Package logo 提供页首 logo 的加载方式：本地文件、HTTP(S) 地址或内存数据。
// 加载失败不应中断报告生成，调用方记录警告后继续。
package logo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// MaxSize 为 logo 数据的上限（字节）。
const MaxSize = 8 << 20

var (
	ErrNotFound = errors.New("logo: 资源不存在")
	ErrTooLarge = errors.New("logo: 资源超过大小上限")
	ErrFetch    = errors.New("logo: 下载失败")
)

// Loader 按需取得 logo 原始字节（PNG/JPEG/GIF）。
type Loader interface {
	Load(ctx context.Context) ([]byte, error)
}

// File 从本地路径读取。
type File string

func (f File) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(string(f))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, f)
		}
		return nil, fmt.Errorf("打开 logo 文件 %s 失败: %w", f, err)
	}
	defer fh.Close()
	return readLimited(fh)
}

// Bytes 直接返回内存中的数据。
type Bytes []byte

func (b Bytes) Load(context.Context) ([]byte, error) { return b, nil }

// URL 通过 HTTP GET 下载。
type URL struct {
	Address string
	Client  *http.Client
}

func (u URL) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.Address, nil)
	if err != nil {
		return nil, fmt.Errorf("构造 logo 请求失败: %w", err)
	}
	client := u.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u.Address)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	return readLimited(resp.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("读取 logo 数据失败: %w", err)
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// FromSource 按来源字符串选择加载方式：http(s) 地址或本地路径；空串返回 nil。
func FromSource(src string) Loader {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return URL{Address: src}
	default:
		return File(src)
	}
}
