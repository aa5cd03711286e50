package preflight

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"barcoded/internal/fileutil"
	"barcoded/internal/logging"
	"barcoded/internal/render"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSocketDir verifies the daemon can create its socket. An existing
// socket file is reported but does not fail the check; it is replaced on start.
func CheckSocketDir(socketPath string) Result {
	const name = "Socket directory"
	result := CheckDirectoryAccess(name, filepath.Dir(socketPath))
	if !result.Passed {
		return result
	}
	if info, err := os.Lstat(socketPath); err == nil {
		kind := "file"
		if info.Mode()&os.ModeSocket != 0 {
			kind = "socket"
		}
		result.Detail = fmt.Sprintf("%s (%s present)", socketPath, kind)
		return result
	}
	result.Detail = fmt.Sprintf("%s (writable)", socketPath)
	return result
}

// CheckFont reports which font the renderer would use. A missing font passes
// with a degraded detail since rendering still works.
func CheckFont(explicit string) Result {
	const name = "Font"
	choice := render.ResolveFont(explicit, logging.NewNop())
	if choice.Path == "" {
		if explicit != "" {
			return Result{Name: name, Detail: fmt.Sprintf("%s not found (built-in face)", explicit)}
		}
		return Result{Name: name, Detail: "not found (built-in face)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", choice.Path, choice.Source)}
}

// CheckHistoryPath verifies the journal location is writable.
func CheckHistoryPath(path string) Result {
	const name = "History journal"
	dir := filepath.Dir(path)
	for {
		if fileutil.IsDir(dir) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	result := CheckDirectoryAccess(name, dir)
	if result.Passed {
		result.Detail = fmt.Sprintf("%s (writable)", path)
	}
	return result
}

// CheckAPIBind verifies the status API address can be bound. It is meant for
// use before the daemon starts; a running daemon already holds the port.
func CheckAPIBind(bind string) Result {
	const name = "Status API"
	if bind == "" {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", bind, err)}
	}
	_ = ln.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (available)", bind)}
}
