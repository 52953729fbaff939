// Command mdreadtime estimates how long markdown documents take to read.
package main

func main() {
	Execute()
}
