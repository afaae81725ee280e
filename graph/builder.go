package graph

import (
	"strconv"
	"strings"

	"github.com/zero-day-ai/huntgraph/finding"
)

const defaultParentProcessName = "Parent Process"

// builder holds the state of a single Build call. Nothing outlives the call.
type builder struct {
	graph Graph

	// hosts maps a lowercase hostname to its node ID.
	hosts map[string]string

	nodeIDs map[string]struct{}
	edgeIDs map[string]struct{}
	edges   map[edgeKey]struct{}
}

// edgeKey identifies an edge by its endpoints. IDs contain '-', so the
// joined edge ID alone cannot tell two endpoint pairs apart.
type edgeKey struct {
	source, target string
}

// Build derives the attack path graph for findings.
//
// The result depends only on the findings and their order: IDs and positions
// are derived, never random or time based. Build never fails and never
// modifies its input. Missing optional details skip the matching entity.
//
// Hosts are shared across findings (matched case-insensitively), as are
// users. Processes are not: two findings that both mention cmd.exe get two
// process nodes, since a process name alone does not identify a process.
func Build(findings []finding.Finding) Graph {
	b := &builder{
		graph: Graph{
			Nodes: make([]Node, 0, len(findings)*2),
			Edges: make([]Edge, 0, len(findings)*2),
		},
		hosts:   make(map[string]string),
		nodeIDs: make(map[string]struct{}),
		edgeIDs: make(map[string]struct{}),
		edges:   make(map[edgeKey]struct{}),
	}

	b.addHosts(findings)
	for i := range findings {
		b.addFinding(i, &findings[i])
	}

	return b.graph
}

// addHosts creates one node per distinct lowercase hostname, in encounter order.
func (b *builder) addHosts(findings []finding.Finding) {
	for i := range findings {
		for _, host := range findings[i].AffectedHosts {
			key := strings.ToLower(host)
			if _, ok := b.hosts[key]; ok {
				continue
			}

			id := b.uniqueNodeID(HostID(host))
			b.hosts[key] = id
			b.addNode(Node{
				ID:        id,
				Kind:      KindHost,
				Label:     TruncateLabel(host),
				FullLabel: host,
				Position:  hostPosition(len(b.hosts) - 1),
				Style:     entityStyle(KindHost),
			})
		}
	}
}

func (b *builder) addFinding(index int, f *finding.Finding) {
	findingID := FindingID(f.ID)
	ref := *f
	b.addNode(Node{
		ID:        findingID,
		Kind:      KindFinding,
		Label:     TruncateLabel(f.Title),
		FullLabel: f.Title,
		Position:  findingPosition(index),
		Style:     findingStyle(f.Severity),
		Finding:   &ref,
	})

	color := f.Severity.Color()
	for _, host := range f.AffectedHosts {
		hostID, ok := b.hosts[strings.ToLower(host)]
		if !ok {
			hostID = HostID(host)
		}
		b.addEdge(Edge{
			Source:   findingID,
			Target:   hostID,
			Relation: RelationAffects,
			Animated: true,
			Style:    EdgeStyle{Stroke: color, StrokeWidth: 2},
			Marker:   &Marker{Type: MarkerArrowClosed, Color: color},
		})
	}

	b.addUser(index, findingID, f.Details)
	b.addProcess(index, findingID, f.Details)
}

// addUser links details.user to the finding, creating the user node the
// first time the user is seen.
func (b *builder) addUser(index int, findingID string, details finding.Details) {
	user, ok := details.String(finding.DetailUser)
	if !ok {
		return
	}

	userID := UserID(user)
	if _, exists := b.nodeIDs[userID]; !exists {
		b.addNode(Node{
			ID:        userID,
			Kind:      KindUser,
			Label:     TruncateLabel(user),
			FullLabel: user,
			Position:  userPosition(index),
			Style:     entityStyle(KindUser),
		})
	}

	b.addEdge(Edge{
		Source:   userID,
		Target:   findingID,
		Relation: RelationInvolvedIn,
		Style:    EdgeStyle{Stroke: userEdgeColor, StrokeWidth: 1},
	})
}

// addProcess creates a process node scoped to the finding, and its parent
// when parent_process_id is present. Only one level of ancestry is kept.
func (b *builder) addProcess(index int, findingID string, details finding.Details) {
	name, ok := details.First(finding.DetailProcessName, finding.DetailCommand, finding.DetailProcessPath)
	if !ok {
		return
	}

	processID := b.uniqueNodeID(ProcessID(name, index))
	b.addNode(Node{
		ID:        processID,
		Kind:      KindProcess,
		Label:     TruncateLabel(name),
		FullLabel: name,
		Position:  processPosition(index),
		Style:     entityStyle(KindProcess),
	})
	b.addEdge(Edge{
		Source:   processID,
		Target:   findingID,
		Relation: RelationExecutedIn,
		Style:    EdgeStyle{Stroke: processEdgeColor, StrokeWidth: 1},
	})

	if !details.Has(finding.DetailParentProcessID) {
		return
	}

	parentName, ok := details.String(finding.DetailParentProcessName)
	if !ok {
		parentName = defaultParentProcessName
	}

	parentID := b.uniqueNodeID(ParentProcessID(parentName, index))
	b.addNode(Node{
		ID:        parentID,
		Kind:      KindProcess,
		Label:     TruncateLabel(parentName),
		FullLabel: parentName,
		Position:  parentProcessPosition(index),
		Style:     entityStyle(KindProcess),
	})
	b.addEdge(Edge{
		Source:   parentID,
		Target:   processID,
		Relation: RelationSpawned,
		Style:    EdgeStyle{Stroke: processEdgeColor, StrokeWidth: 1},
		Marker:   &Marker{Type: MarkerArrowClosed},
	})
}

func (b *builder) addNode(n Node) {
	b.nodeIDs[n.ID] = struct{}{}
	b.graph.Nodes = append(b.graph.Nodes, n)
}

// addEdge appends e unless an edge with the same endpoints exists, which
// happens when a finding lists the same host twice.
func (b *builder) addEdge(e Edge) {
	key := edgeKey{source: e.Source, target: e.Target}
	if _, exists := b.edges[key]; exists {
		return
	}
	b.edges[key] = struct{}{}

	e.ID = uniqueID(b.edgeIDs, EdgeID(e.Source, e.Target))
	b.edgeIDs[e.ID] = struct{}{}
	b.graph.Edges = append(b.graph.Edges, e)
}

// uniqueNodeID returns id, or id with a numeric suffix when two different
// values normalize to the same ID (e.g. "web.01" and "web-01").
func (b *builder) uniqueNodeID(id string) string {
	return uniqueID(b.nodeIDs, id)
}

func uniqueID(taken map[string]struct{}, id string) string {
	if _, ok := taken[id]; !ok {
		return id
	}
	for n := 2; ; n++ {
		candidate := id + "~" + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
