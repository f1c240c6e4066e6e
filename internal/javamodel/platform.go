package javamodel

// java.lang is imported implicitly. Without a JDK on the classpath these
// names are the ones that resolve to java.lang.
var javaLang = map[string]bool{
	"AbstractMethodError": true, "Appendable": true, "ArithmeticException": true,
	"ArrayIndexOutOfBoundsException": true, "ArrayStoreException": true, "AssertionError": true,
	"AutoCloseable": true, "Boolean": true, "Byte": true, "CharSequence": true,
	"Character": true, "Class": true, "ClassCastException": true, "ClassLoader": true,
	"ClassNotFoundException": true, "CloneNotSupportedException": true, "Cloneable": true,
	"Comparable": true, "Deprecated": true, "Double": true, "Enum": true, "Error": true,
	"Exception": true, "ExceptionInInitializerError": true, "Float": true,
	"FunctionalInterface": true, "IllegalAccessException": true, "IllegalArgumentException": true,
	"IllegalMonitorStateException": true, "IllegalStateException": true,
	"IndexOutOfBoundsException": true, "InheritableThreadLocal": true,
	"InstantiationException": true, "Integer": true, "InternalError": true,
	"InterruptedException": true, "Iterable": true, "LinkageError": true, "Long": true,
	"Math": true, "Module": true, "NegativeArraySizeException": true,
	"NoClassDefFoundError": true, "NoSuchFieldException": true, "NoSuchMethodException": true,
	"NullPointerException": true, "Number": true, "NumberFormatException": true,
	"Object": true, "OutOfMemoryError": true, "Override": true, "Package": true,
	"Process": true, "ProcessBuilder": true, "ProcessHandle": true, "Readable": true,
	"Record": true, "ReflectiveOperationException": true, "Runnable": true, "Runtime": true,
	"RuntimeException": true, "SafeVarargs": true, "SecurityException": true, "Short": true,
	"StackOverflowError": true, "StackTraceElement": true, "StackWalker": true,
	"StrictMath": true, "String": true, "StringBuffer": true, "StringBuilder": true,
	"StringIndexOutOfBoundsException": true, "SuppressWarnings": true, "System": true,
	"Thread": true, "ThreadDeath": true, "ThreadGroup": true, "ThreadLocal": true,
	"Throwable": true, "TypeNotPresentException": true, "UnsupportedOperationException": true,
	"VirtualMachineError": true, "Void": true,
}

var primitives = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}
