// Command lessonforge generates structured course lessons with LLM backends.
package main

func main() {
	Execute()
}
