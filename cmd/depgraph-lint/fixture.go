package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v2"

	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/address"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/classreg"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/describe"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/dropengine"
	"github.com/coredb-io/depgraph/pkg/catalog/depgraph/edge"
)

// fixtureObject is one catalog object declared in a YAML graph fixture.
type fixtureObject struct {
	Class     string `yaml:"class"`
	ID        int64  `yaml:"id"`
	Sub       uint32 `yaml:"sub"`
	Name      string `yaml:"name"`
	Schema    string `yaml:"schema"`
	Visible   bool   `yaml:"visible"`
	OwnerDesc string `yaml:"owner_desc"`
	Extra     string `yaml:"extra"`
}

type fixtureEndpoint struct {
	Class string `yaml:"class"`
	ID    int64  `yaml:"id"`
	Sub   uint32 `yaml:"sub"`
}

// fixtureEdge is one dependency edge declared in a YAML graph fixture.
// Dependent is omitted (the zero triple) for a PIN edge.
type fixtureEdge struct {
	Dependent  *fixtureEndpoint `yaml:"dependent"`
	Referenced fixtureEndpoint  `yaml:"referenced"`
	Type       string           `yaml:"type"`
}

// fixture is the top-level shape of a graph fixture file: a small,
// self-contained catalog snapshot for exercising the drop engine
// outside of a real embedding database.
type fixture struct {
	Classes []string        `yaml:"classes"`
	Objects []fixtureObject `yaml:"objects"`
	Edges   []fixtureEdge   `yaml:"edges"`
}

var classByName = map[string]address.ObjectClass{
	"class":         address.Class,
	"proc":          address.Proc,
	"type":          address.Type,
	"cast":          address.Cast,
	"constraint":    address.Constraint,
	"conversion":    address.Conversion,
	"default":       address.Default,
	"language":      address.Language,
	"operator":      address.Operator,
	"opclass":       address.OpClass,
	"rewrite":       address.Rewrite,
	"trigger":       address.Trigger,
	"schema":        address.Schema,
	"role":          address.Role,
	"database":      address.Database,
	"tablespace":    address.Tablespace,
	"filespace":     address.Filespace,
	"filesystem":    address.Filesystem,
	"fdw":           address.Fdw,
	"foreignserver": address.ForeignServer,
	"usermapping":   address.UserMapping,
	"extprotocol":   address.ExtProtocol,
	"compression":   address.Compression,
}

func parseClass(name string) (address.ObjectClass, error) {
	c, ok := classByName[name]
	if !ok {
		return 0, errors.Newf("depgraph-lint: unrecognized class %q", name)
	}
	return c, nil
}

func parseDependencyType(s string) (edge.DependencyType, error) {
	switch s {
	case "", "normal":
		return edge.Normal, nil
	case "auto":
		return edge.Auto, nil
	case "internal":
		return edge.Internal, nil
	case "pin":
		return edge.Pin, nil
	default:
		return 0, errors.Newf("depgraph-lint: unrecognized dependency type %q", s)
	}
}

// fixtureBackend is a classreg.ClassBackend over a fixture's in-memory
// object set: every class shares one backend, since the fixture has no
// real per-class storage to dispatch into.
type fixtureBackend struct {
	live map[address.ObjectAddress]bool
	log  *[]address.ObjectAddress
}

func (b *fixtureBackend) Exists(_ context.Context, id int64) (bool, error) {
	for a, alive := range b.live {
		if a.ObjectID == id && alive {
			return true, nil
		}
	}
	return false, nil
}

func (b *fixtureBackend) Drop(_ context.Context, a address.ObjectAddress) error {
	if !b.live[a] {
		return errors.Newf("depgraph-lint: %s is not live", a)
	}
	b.live[a] = false
	*b.log = append(*b.log, a)
	return nil
}

type fixtureDescriber struct {
	infos map[address.ObjectAddress]describe.ObjectInfo
}

func (d fixtureDescriber) Lookup(a address.ObjectAddress, _ address.ObjectClass) (describe.ObjectInfo, error) {
	if info, ok := d.infos[a]; ok {
		return info, nil
	}
	return describe.ObjectInfo{Name: a.String()}, nil
}

// loadedFixture bundles everything a drop run over a fixture needs.
type loadedFixture struct {
	store    *edge.MemStore
	classes  *classreg.Registry
	engine   *dropengine.Engine
	nameToID map[string]address.ObjectAddress
	dropped  []address.ObjectAddress
}

func loadFixture(path string) (*loadedFixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "depgraph-lint: reading %s", path)
	}
	var f fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "depgraph-lint: parsing %s", path)
	}

	ids := make(map[address.ObjectClass]address.ClassID, len(classByName))
	var nextID address.ClassID = 1
	for _, name := range f.Classes {
		class, err := parseClass(name)
		if err != nil {
			return nil, err
		}
		ids[class] = nextID
		nextID++
	}

	var dropped []address.ObjectAddress
	live := make(map[address.ObjectAddress]bool)
	backend := &fixtureBackend{live: live, log: &dropped}
	backends := make(map[address.ObjectClass]classreg.ClassBackend, len(ids))
	for class := range ids {
		backends[class] = backend
	}
	classes, err := classreg.New(ids, backends)
	if err != nil {
		return nil, err
	}

	infos := make(map[address.ObjectAddress]describe.ObjectInfo, len(f.Objects))
	nameToID := make(map[string]address.ObjectAddress, len(f.Objects))
	for _, obj := range f.Objects {
		class, err := parseClass(obj.Class)
		if err != nil {
			return nil, err
		}
		classID, ok := ids[class]
		if !ok {
			return nil, errors.Newf("depgraph-lint: object %q uses class %q not declared under classes:", obj.Name, obj.Class)
		}
		a := address.ObjectAddress{ClassID: classID, ObjectID: obj.ID, SubID: obj.Sub}
		live[a] = true
		infos[a] = describe.ObjectInfo{
			Name:      obj.Name,
			Schema:    obj.Schema,
			Visible:   obj.Visible,
			OwnerDesc: obj.OwnerDesc,
			Extra:     obj.Extra,
		}
		if obj.Name != "" {
			nameToID[obj.Name] = a
		}
	}

	store := edge.NewMemStore()
	ctx := context.Background()
	for _, fe := range f.Edges {
		kind, err := parseDependencyType(fe.Type)
		if err != nil {
			return nil, err
		}
		refClass, err := parseClass(fe.Referenced.Class)
		if err != nil {
			return nil, err
		}
		refClassID, ok := ids[refClass]
		if !ok {
			return nil, errors.Newf("depgraph-lint: edge references undeclared class %q", fe.Referenced.Class)
		}
		ref := address.ObjectAddress{ClassID: refClassID, ObjectID: fe.Referenced.ID, SubID: fe.Referenced.Sub}

		var dep address.ObjectAddress
		if fe.Dependent != nil {
			depClass, err := parseClass(fe.Dependent.Class)
			if err != nil {
				return nil, err
			}
			depClassID, ok := ids[depClass]
			if !ok {
				return nil, errors.Newf("depgraph-lint: edge dependent uses undeclared class %q", fe.Dependent.Class)
			}
			dep = address.ObjectAddress{ClassID: depClassID, ObjectID: fe.Dependent.ID, SubID: fe.Dependent.Sub}
		}

		if err := store.InsertMany(ctx, dep, []address.ObjectAddress{ref}, kind); err != nil {
			return nil, err
		}
	}

	describer := fixtureDescriber{infos: infos}
	logger := newCLILogger()
	engine := dropengine.New(store, classes, describer, dropengine.WithLogger(logger))

	lf := &loadedFixture{
		store:    store,
		classes:  classes,
		engine:   engine,
		nameToID: nameToID,
		dropped:  dropped,
	}
	backend.log = &lf.dropped
	return lf, nil
}

func (lf *loadedFixture) resolve(nameOrAddr string) (address.ObjectAddress, error) {
	if a, ok := lf.nameToID[nameOrAddr]; ok {
		return a, nil
	}
	var classID int64
	var objID int64
	var sub uint32
	n, err := fmt.Sscanf(nameOrAddr, "%d:%d:%d", &classID, &objID, &sub)
	if err == nil && n == 3 {
		return address.ObjectAddress{ClassID: address.ClassID(classID), ObjectID: objID, SubID: sub}, nil
	}
	n, err = fmt.Sscanf(nameOrAddr, "%d:%d", &classID, &objID)
	if err == nil && n == 2 {
		return address.ObjectAddress{ClassID: address.ClassID(classID), ObjectID: objID}, nil
	}
	return address.ObjectAddress{}, errors.Newf("depgraph-lint: cannot resolve %q to an object (use a fixture name or classid:objectid[:subid])", nameOrAddr)
}
