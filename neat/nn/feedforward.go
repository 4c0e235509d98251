// Package nn turns a genome into a runnable network.
package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/neat-racer/neat"
)

type link struct {
	from   int // value slot
	weight float64
}

type neuron struct {
	slot        int
	bias        float64
	response    float64
	activation  neat.ActivationFunc
	aggregation neat.AggregationFunc
	links       []link
}

// FeedForwardNetwork evaluates the nodes a genome's outputs depend on, in
// topological order. Node values live in a dense slice; inputs occupy the
// first slots. A network is not safe for concurrent Activate calls.
type FeedForwardNetwork struct {
	numInputs int
	outputs   []int // slot per output, -1 when the output is unreachable
	neurons   []neuron
	values    []float64
	buf       []float64
}

// CreateFeedForwardNetwork builds the network for g under config. Only
// enabled connections count, and only nodes that can influence an output
// are evaluated.
func CreateFeedForwardNetwork(g *neat.Genome, config *neat.GenomeConfig) (*FeedForwardNetwork, error) {
	if !config.FeedForward {
		return nil, fmt.Errorf("cannot create FeedForwardNetwork for a genome configured with FeedForward=false")
	}

	var conns []neat.ConnectionKey
	for key, c := range g.Connections {
		if c.Enabled {
			conns = append(conns, key)
		}
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].OutNodeID != conns[j].OutNodeID {
			return conns[i].OutNodeID < conns[j].OutNodeID
		}
		return conns[i].InNodeID < conns[j].InNodeID
	})

	layers, err := feedForwardLayers(config.InputKeys, config.OutputKeys, conns)
	if err != nil {
		return nil, err
	}

	slots := make(map[int]int, len(config.InputKeys))
	for i, key := range config.InputKeys {
		slots[key] = i
	}
	net := &FeedForwardNetwork{numInputs: len(config.InputKeys)}
	for _, layer := range layers {
		for _, key := range layer {
			node, ok := g.Nodes[key]
			if !ok {
				return nil, fmt.Errorf("connection references node %d missing from genome %d", key, g.Key)
			}
			act, err := neat.GetActivation(node.Activation)
			if err != nil {
				return nil, fmt.Errorf("failed to get activation function '%s' for node %d: %w", node.Activation, key, err)
			}
			agg, err := neat.GetAggregation(node.Aggregation)
			if err != nil {
				return nil, fmt.Errorf("failed to get aggregation function '%s' for node %d: %w", node.Aggregation, key, err)
			}
			slots[key] = net.numInputs + len(net.neurons)
			net.neurons = append(net.neurons, neuron{
				slot:        slots[key],
				bias:        node.Bias,
				response:    node.Response,
				activation:  act,
				aggregation: agg,
			})
		}
	}
	for i := range net.neurons {
		n := &net.neurons[i]
		for _, c := range conns {
			if slots[c.OutNodeID] != n.slot {
				continue
			}
			if from, ok := slots[c.InNodeID]; ok {
				n.links = append(n.links, link{from: from, weight: g.Connections[c].Weight})
			}
		}
	}
	net.outputs = make([]int, len(config.OutputKeys))
	for i, key := range config.OutputKeys {
		if slot, ok := slots[key]; ok {
			net.outputs[i] = slot
		} else {
			net.outputs[i] = -1
		}
	}
	net.values = make([]float64, net.numInputs+len(net.neurons))
	return net, nil
}

// Activate computes the outputs for inputs, which must match the input count.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != net.numInputs {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), net.numInputs)
	}
	copy(net.values, inputs)
	for i := range net.neurons {
		n := &net.neurons[i]
		in := net.buf[:0]
		for _, l := range n.links {
			in = append(in, net.values[l.from]*l.weight)
		}
		net.buf = in
		net.values[n.slot] = n.activation(n.bias + n.response*n.aggregation(in))
	}
	out := make([]float64, len(net.outputs))
	for i, slot := range net.outputs {
		if slot >= 0 {
			out[i] = net.values[slot]
		}
	}
	return out, nil
}

// requiredNodes returns the non-input nodes whose values can reach an output.
func requiredNodes(inputs, outputs []int, conns []neat.ConnectionKey) map[int]bool {
	isInput := make(map[int]bool, len(inputs))
	for _, k := range inputs {
		isInput[k] = true
	}
	required := make(map[int]bool, len(outputs))
	for _, k := range outputs {
		required[k] = true
	}
	frontier := required
	for {
		next := make(map[int]bool)
		for _, c := range conns {
			if frontier[c.OutNodeID] && !required[c.InNodeID] && !isInput[c.InNodeID] {
				next[c.InNodeID] = true
			}
		}
		if len(next) == 0 {
			return required
		}
		for k := range next {
			required[k] = true
		}
		frontier = next
	}
}

// feedForwardLayers groups required nodes into layers whose inputs are all
// computed by earlier layers. Nodes that can never be computed, because
// they sit on a cycle or downstream of one, are an error.
func feedForwardLayers(inputs, outputs []int, conns []neat.ConnectionKey) ([][]int, error) {
	required := requiredNodes(inputs, outputs, conns)

	known := make(map[int]bool, len(inputs))
	for _, k := range inputs {
		known[k] = true
	}
	var layers [][]int
	placed := 0
	for {
		var candidates []int
		for node := range required {
			if known[node] {
				continue
			}
			ready := true
			for _, c := range conns {
				if c.OutNodeID == node && required[c.InNodeID] && !known[c.InNodeID] {
					ready = false
					break
				}
			}
			if ready {
				candidates = append(candidates, node)
			}
		}
		if len(candidates) == 0 {
			break
		}
		sort.Ints(candidates)
		for _, n := range candidates {
			known[n] = true
		}
		layers = append(layers, candidates)
		placed += len(candidates)
	}
	if placed != len(required) {
		return nil, fmt.Errorf("failed topological sort: cycle detected (placed %d of %d nodes)", placed, len(required))
	}
	return layers, nil
}
