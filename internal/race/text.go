package race

import (
	"math/rand"

	"github.com/typing-racer/internal/domain"
)

// textPools holds the fixed passage pool for each difficulty level.
var textPools = map[domain.Difficulty][]string{
	domain.DifficultyEasy: {
		"The quick brown fox jumps over the lazy dog. This is a simple sentence for beginners to practice typing.",
		"Cats and dogs are popular pets. They bring joy and companionship to many families around the world.",
		"Learning to type fast takes practice and patience. Start slow and gradually increase your speed.",
	},
	domain.DifficultyMedium: {
		"Technology has revolutionized the way we communicate and work. From smartphones to artificial intelligence, innovation continues to shape our daily lives in remarkable ways.",
		"The art of programming requires logical thinking and creative problem-solving skills. Developers must write clean, efficient code that solves real-world challenges.",
		"Climate change presents one of the greatest challenges of our time. Scientists and policymakers work together to find sustainable solutions for future generations.",
	},
	domain.DifficultyHard: {
		"Quantum computing represents a paradigm shift in computational capabilities, leveraging quantum mechanical phenomena like superposition and entanglement to process information exponentially faster than classical computers.",
		"Cryptocurrency and blockchain technology have disrupted traditional financial systems, creating decentralized networks that enable peer-to-peer transactions without intermediaries or central authorities.",
		"Machine learning algorithms analyze vast datasets to identify patterns and make predictions, transforming industries from healthcare to autonomous vehicles through sophisticated neural networks.",
	},
	domain.DifficultyExpert: {
		"The implementation of advanced cryptographic protocols ensures data integrity and confidentiality in distributed systems, utilizing mathematical functions that are computationally infeasible to reverse without proper authorization keys.",
		"Bioinformatics combines computational biology with statistical analysis to decode genomic sequences, enabling researchers to understand genetic variations and develop personalized medical treatments for complex diseases.",
		"Quantum entanglement demonstrates non-local correlations between particles, challenging classical physics concepts and providing the foundation for quantum communication protocols and teleportation experiments.",
	},
	domain.DifficultyNightmare: {
		"Pseudorandom number generators utilizing cryptographically secure algorithms incorporate entropy from hardware-based sources, ensuring unpredictability essential for cybersecurity applications, digital signatures, and blockchain consensus mechanisms.",
		"Neuromorphic computing architectures mimic synaptic plasticity through memristive devices, implementing spiking neural networks that achieve ultra-low power consumption while processing temporal information with biological-inspired learning algorithms.",
		"Topological quantum error correction codes protect quantum information against decoherence by encoding logical qubits across multiple physical qubits, utilizing anyonic braiding operations and surface code implementations for fault-tolerant quantum computation.",
	},
}

// Passages returns the fixed pool for a difficulty. Unknown levels fall back
// to medium.
func Passages(d domain.Difficulty) []string {
	if pool, ok := textPools[d]; ok {
		return pool
	}
	return textPools[domain.DifficultyMedium]
}

// pickText selects one passage uniformly at random from the pool.
func pickText(rng *rand.Rand, d domain.Difficulty) string {
	pool := Passages(d)
	return pool[rng.Intn(len(pool))]
}
