// Capsim runs a simulated analog capture and prints the sampled records.
package main

func main() {
	Execute()
}
