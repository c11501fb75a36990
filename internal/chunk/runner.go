package chunk

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdu3/AstarML/internal/logger"
	"github.com/pdu3/AstarML/internal/model"
)

// DefaultSources are chunked when Options.Sources is empty
var DefaultSources = []string{"docs", "forums", "blogs"}

// Options configures Run
type Options struct {
	DataRoot string
	Out      string
	Sources  []string
	Workers  int
	Log      *logger.Logger
}

type fileJob struct {
	path string
	rel  string
	kind string
}

// Run chunks every selected source under DataRoot into Out as JSONL and
// returns the number of chunks written. Files are parsed in parallel; output
// order is docs, forums, blogs with files sorted by path.
func Run(ctx context.Context, opts Options) (int, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	sources := opts.Sources
	if len(sources) == 0 {
		sources = DefaultSources
	}
	for _, s := range sources {
		if !slices.Contains(DefaultSources, s) {
			return 0, fmt.Errorf("unknown source %q (want docs, forums or blogs)", s)
		}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var jobs []fileJob
	if slices.Contains(sources, "docs") {
		files, err := listFiles(opts.DataRoot, log, "docs", ".md", ".html", ".htm")
		if err != nil {
			return 0, err
		}
		jobs = append(jobs, files...)
	}

	var forumChunks []model.Evidence
	if slices.Contains(sources, "forums") {
		chunks, err := forumFile(opts.DataRoot, log)
		if err != nil {
			return 0, err
		}
		forumChunks = chunks
	}

	var blogJobs []fileJob
	if slices.Contains(sources, "blogs") {
		files, err := listFiles(opts.DataRoot, log, "blogs", ".md")
		if err != nil {
			return 0, err
		}
		blogJobs = files
	}

	docResults, err := chunkFiles(ctx, jobs, workers, log)
	if err != nil {
		return 0, err
	}
	blogResults, err := chunkFiles(ctx, blogJobs, workers, log)
	if err != nil {
		return 0, err
	}

	var all []model.Evidence
	for _, r := range docResults {
		all = append(all, r...)
	}
	all = append(all, forumChunks...)
	for _, r := range blogResults {
		all = append(all, r...)
	}

	if err := WriteJSONL(opts.Out, all); err != nil {
		return 0, err
	}
	log.Info("chunks written", "out", opts.Out, "chunks", len(all), "sources", strings.Join(sources, ","))
	return len(all), nil
}

// chunkFiles parses jobs concurrently; result i belongs to jobs[i]
func chunkFiles(ctx context.Context, jobs []fileJob, workers int, log *logger.Logger) ([][]model.Evidence, error) {
	results := make([][]model.Evidence, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(job.path)
			if err != nil {
				return fmt.Errorf("read %s: %w", job.rel, err)
			}

			var chunks []model.Evidence
			switch {
			case job.kind == "blogs":
				chunks, err = Blog(string(data), job.rel)
			case strings.HasSuffix(strings.ToLower(job.path), ".md"):
				chunks, err = Doc(string(data), job.rel)
			default:
				chunks, err = HTMLDoc(string(data), job.rel)
			}
			if err != nil {
				log.Warn("skipping file", "file", job.rel, "error", err)
				return nil
			}
			results[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// pickDir returns the first of data/<name>, <name> that is a directory
func pickDir(root, name string) string {
	for _, rel := range []string{filepath.Join("data", name), name} {
		dir := filepath.Join(root, rel)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

func listFiles(root string, log *logger.Logger, kind string, exts ...string) ([]fileJob, error) {
	dir := pickDir(root, kind)
	if dir == "" {
		log.Warn("source directory not found", "source", kind, "root", root)
		return nil, nil
	}

	var jobs []fileJob
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, fileJob{path: path, rel: filepath.ToSlash(rel), kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].rel < jobs[j].rel })
	log.Info("scanning source", "source", kind, "dir", dir, "files", len(jobs))
	return jobs, nil
}

func forumFile(root string, log *logger.Logger) ([]model.Evidence, error) {
	for _, rel := range []string{"data/forums/threads.jsonl", "forums/threads.jsonl"} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", rel, err)
		}
		defer func() { _ = f.Close() }()

		chunks, err := ReadThreads(f, log)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		log.Info("scanning source", "source", "forums", "file", path, "chunks", len(chunks))
		return chunks, nil
	}
	log.Warn("source file not found", "source", "forums", "root", root)
	return nil, nil
}

// ReadThreads chunks a threads JSONL stream. Lines that do not decode are
// logged and skipped.
func ReadThreads(r io.Reader, log *logger.Logger) ([]model.Evidence, error) {
	var out []model.Evidence
	err := scanLines(r, func(n int, line []byte) {
		var t Thread
		if err := json.Unmarshal(line, &t); err != nil {
			log.Warn("bad thread line", "line", n, "error", err)
			return
		}
		out = append(out, ForumThread(t)...)
	})
	return out, err
}

func scanLines(r io.Reader, fn func(n int, line []byte)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fn(n, []byte(line))
	}
	return sc.Err()
}

// WriteJSONL writes one JSON object per line, creating parent directories
func WriteJSONL(path string, items []model.Evidence) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode chunk %s: %w", item.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadEvidence reads ranked evidence rows from a JSONL file, keeping file
// order. Rows that do not decode or have no text are logged and skipped.
func LoadEvidence(path string, log *logger.Logger) ([]model.Evidence, error) {
	if log == nil {
		log = logger.Nop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open evidence: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []model.Evidence
	err = scanLines(f, func(n int, line []byte) {
		var ev model.Evidence
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Warn("bad evidence line", "line", n, "error", err)
			return
		}
		if strings.TrimSpace(ev.Text) == "" {
			log.Warn("evidence without text", "line", n, "id", ev.ID)
			return
		}
		out = append(out, ev)
	})
	if err != nil {
		return nil, fmt.Errorf("read evidence: %w", err)
	}
	return out, nil
}
