package main

var version = "0.2.0"
