// Command perch controls the perch floating widget daemon and hosts a
// terminal simulator of the widget engine.
package main

func main() {
	Execute()
}
