package directory

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// node is one level of the directory tree: a set of named
// subdirectories and a set of named services. No cycles are possible
// by construction since node only ever grows children, never
// cross-links.
type node struct {
	subdirs  map[string]*node
	services map[string]*ServiceRecord
}

func newNode() *node {
	return &node{
		subdirs:  make(map[string]*node),
		services: make(map[string]*ServiceRecord),
	}
}

// Directory is the path-addressed service registry. All mutating
// operations hold a single directory-wide lock for the duration of one
// structural change; the directory is read from both the listener (on
// Lookup, to admit a new connection) and the switchboard (when sweeping
// service queues), and a single mutex keeps partial tree mutations from
// interleaving.
type Directory struct {
	mu     sync.Mutex
	root   *node
	loader Loader
	log    zerolog.Logger
}

// New returns an empty Directory that spawns missing services via
// loader. loader may be nil if the directory is only ever populated via
// Add.
func New(loader Loader, log zerolog.Logger) *Directory {
	return &Directory{
		root:   newNode(),
		loader: loader,
		log:    log,
	}
}

// Lookup resolves path to a live ServiceRecord:
//
//  1. Descend through every non-terminal segment, creating empty
//     subdirectories as needed so that first-time paths populate the
//     tree.
//  2. At the terminal segment: if a record is present and alive, return
//     it. If present but not alive, evict it and fall through to
//     respawn. If absent, ask the loader to spawn one; on success
//     register and return it, on failure return ErrNotFound.
func (d *Directory) Lookup(path []string) (*ServiceRecord, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cur := d.root
	for _, seg := range path[:len(path)-1] {
		next, ok := cur.subdirs[seg]
		if !ok {
			next = newNode()
			cur.subdirs[seg] = next
		}
		cur = next
	}

	terminal := path[len(path)-1]

	if rec, ok := cur.services[terminal]; ok {
		if rec.IsAlive() {
			return rec, nil
		}
		d.log.Info().Str("path", strings.Join(path, "/")).Msg("evicting dead service")
		delete(cur.services, terminal)
	}

	if d.loader == nil {
		return nil, ErrNoLoader
	}

	worker, inbound, outbound, err := d.loader(path)
	if err != nil {
		return nil, ErrNotFound
	}

	rec := &ServiceRecord{Worker: worker, Inbound: inbound, Outbound: outbound, Path: strings.Join(path, "/")}
	worker.Start()
	cur.services[terminal] = rec

	d.log.Info().Str("path", rec.Path).Msg("spawned service")
	return rec, nil
}

// Add inserts rec under name at the root iff the name is absent and
// rec is alive. Returns false on conflict or a dead record.
func (d *Directory) Add(name string, rec *ServiceRecord) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.root.services[name]; exists {
		return false
	}
	if !rec.IsAlive() {
		return false
	}
	d.root.services[name] = rec
	return true
}

// All returns every currently registered ServiceRecord in the tree,
// collected depth-first. Used by the switchboard loop to sweep every
// service's outbound queue once per pass.
func (d *Directory) All() []*ServiceRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*ServiceRecord
	collect(d.root, &out)
	return out
}

func collect(n *node, out *[]*ServiceRecord) {
	for _, rec := range n.services {
		*out = append(*out, rec)
	}
	for _, child := range n.subdirs {
		collect(child, out)
	}
}

// JoinAll recursively shuts down every worker in the tree, depth-first:
// each worker's shutdown flag is set, then it is joined. Called once,
// at process shutdown.
func (d *Directory) JoinAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	joinAll(d.root)
}

func joinAll(n *node) {
	for _, child := range n.subdirs {
		joinAll(child)
	}
	for _, rec := range n.services {
		rec.Worker.RequestShutdown()
		rec.Worker.Join()
	}
}
