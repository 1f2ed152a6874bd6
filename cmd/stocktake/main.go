// Stocktake - Cloud Resource Inventory
// Collect. Normalize. Export.
package main

func main() {
	Execute()
}
