package transport

import (
	"io"
	"os"

	"github.com/pkg/sftp"
)

// sftpMkdir implements the SFTP-path mkdir semantics: succeed if the
// target already exists and is a directory, fail with ExitCodeError
// if it exists and is not, otherwise create it and chmod it. Grounded
// on lib/sshutils/sftp's remoteFS.Mkdir, generalized with the "already
// exists" tolerance spec.md requires.
func sftpMkdir(client *sftp.Client, path string, mode int) error {
	info, err := client.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return &ExitCodeError{Code: 1, Reason: "File " + path + " exists and is not a directory"}
	}
	if !os.IsNotExist(err) {
		return &SSHError{Err: err}
	}
	if err := client.MkdirAll(path); err != nil {
		return &SSHError{Err: err}
	}
	if err := client.Chmod(path, os.FileMode(mode)); err != nil {
		return &SSHError{Err: err}
	}
	return nil
}

// sftpPut uploads r to path, invoking progress with the cumulative
// byte count after each putChunkSize write.
func sftpPut(client *sftp.Client, path string, r io.Reader, progress func(n int64)) error {
	f, err := client.Create(path)
	if err != nil {
		return &SSHError{Err: err}
	}
	defer f.Close()

	var total int64
	buf := make([]byte, putChunkSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return &IOError{Err: werr}
			}
			total += int64(n)
			if progress != nil {
				progress(total)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return &IOError{Err: rerr}
		}
	}
}

// sftpGet downloads path's contents to w.
func sftpGet(client *sftp.Client, path string, w io.Writer) error {
	f, err := client.Open(path)
	if err != nil {
		return &SSHError{Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return &IOError{Err: err}
	}
	return nil
}

// sftpRemove removes a single remote file (non-recursive, per spec).
func sftpRemove(client *sftp.Client, path string) error {
	if err := client.Remove(path); err != nil {
		return &SSHError{Err: err}
	}
	return nil
}
